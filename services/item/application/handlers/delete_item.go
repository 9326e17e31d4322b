package handlers

import (
	"net/http"

	"github.com/ghuser/itemcatalog/pkg/logger"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services, log logger.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc, log: log}
}

// Execute deletes an item together with its variations.
//
//	@Summary		Delete item
//	@Description	Deletes an item and all of its variations
//	@Tags			items
//	@Produce		json
//	@Param			id	path	string	true	"Item ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Item.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
