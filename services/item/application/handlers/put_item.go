package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/itemcatalog/pkg/httpx"
	"github.com/ghuser/itemcatalog/pkg/logger"
	pkgvalidator "github.com/ghuser/itemcatalog/pkg/validator"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// PutItemHandler handles PUT /items requests.
type PutItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewPutItemHandler returns a PutItemHandler backed by the given services.
func NewPutItemHandler(svc *appsvcs.Services, log logger.Logger) *PutItemHandler {
	return &PutItemHandler{svc: svc, log: log}
}

// Execute replaces an existing item and all of its variations.
//
//	@Summary		Replace item
//	@Description	Replaces the item identified by the body id. Variations not present in the body are removed.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpdateItemRequest	true	"Full item replacement"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		413	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.Decode[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.svc.Item.Update(r.Context(), appsvcs.ItemInput{
		ID:         id,
		Name:       req.Name,
		Reference:  req.Reference,
		Price:      req.Price,
		Variations: toVariationInputs(req.Variations),
	}); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
