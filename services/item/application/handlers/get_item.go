package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/itemcatalog/pkg/httpx"
	"github.com/ghuser/itemcatalog/pkg/logger"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services, log logger.Logger) *GetItemHandler {
	return &GetItemHandler{svc: svc, log: log}
}

// Execute returns one item with its effective price.
//
//	@Summary		Get item
//	@Description	Returns an item and its variations, priced at the time of the request
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"	format(uuid)
//	@Success		200	{object}	ItemResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

// parseItemID reads the {id} URL parameter, writing 400 when it is not a UUID.
func parseItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid item id")
		return uuid.Nil, false
	}
	return id, true
}
