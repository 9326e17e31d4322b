package handlers

import (
	"net/http"

	"github.com/ghuser/itemcatalog/pkg/httpx"
	"github.com/ghuser/itemcatalog/pkg/logger"
	pkgvalidator "github.com/ghuser/itemcatalog/pkg/validator"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services, log logger.Logger) *PostItemHandler {
	return &PostItemHandler{svc: svc, log: log}
}

// Execute creates a new item with its variations.
//
//	@Summary		Create item
//	@Description	Creates an item and its stock variations. The response carries the effective price.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.Decode[CreateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Create(r.Context(), appsvcs.ItemInput{
		Name:       req.Name,
		Reference:  req.Reference,
		Price:      req.Price,
		Variations: toVariationInputs(req.Variations),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}
