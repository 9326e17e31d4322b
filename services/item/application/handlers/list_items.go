package handlers

import (
	"net/http"

	"github.com/ghuser/itemcatalog/pkg/httpx"
	"github.com/ghuser/itemcatalog/pkg/logger"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, log logger.Logger) *ListItemsHandler {
	return &ListItemsHandler{svc: svc, log: log}
}

// Execute lists every item in the catalog.
//
//	@Summary		List items
//	@Description	Returns all items with their variations, priced at the time of the request
//	@Tags			items
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Item.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := make([]ItemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}
	httpx.JSON(w, http.StatusOK, resp)
}
