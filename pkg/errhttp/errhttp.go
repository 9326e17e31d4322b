// Package errhttp turns item domain errors into HTTP responses.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemcatalog/pkg/httpx"
	itemdomain "github.com/ghuser/itemcatalog/services/item/domain"
)

// WriteError writes err as {"error": ...} with the status chosen by Status.
// Server errors expose only the status text.
func WriteError(w http.ResponseWriter, err error) {
	status := Status(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status, true))
}

// Status matches err, wrapped or not, against the domain sentinels. Anything
// unrecognised is a 500.
func Status(err error) int {
	switch {
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, itemdomain.ErrItemAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, itemdomain.ErrInvalidItemName), errors.Is(err, itemdomain.ErrInvalidItem):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
