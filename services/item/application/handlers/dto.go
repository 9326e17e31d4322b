package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/itemcatalog/pkg/errhttp"
	"github.com/ghuser/itemcatalog/pkg/logger"
	"github.com/ghuser/itemcatalog/pkg/telemetry"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

// VariationRequest is one stock variation in an item request body.
type VariationRequest struct {
	Size     string `json:"size"     validate:"max=64"                example:"M"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=2147483647"  example:"4"`
} // @name VariationRequest

// CreateItemRequest is the request body for POST /items.
// Any id in the body is ignored; the server always assigns one.
type CreateItemRequest struct {
	Name       string             `json:"name"       validate:"required,min=1,max=255" example:"Linen Shirt"`
	Reference  string             `json:"reference"  validate:"required,max=64"        example:"LS-001"`
	Price      decimal.Decimal    `json:"price"      validate:"required,money"         swaggertype:"number" example:"49.90"`
	Variations []VariationRequest `json:"variations" validate:"dive"`
} // @name CreateItemRequest

// UpdateItemRequest is the request body for PUT /items. It replaces the whole
// item: omitted variations are removed.
type UpdateItemRequest struct {
	ID         string             `json:"id"         validate:"required,uuid"          example:"123e4567-e89b-12d3-a456-426614174000"`
	Name       string             `json:"name"       validate:"required,min=1,max=255" example:"Linen Shirt"`
	Reference  string             `json:"reference"  validate:"required,max=64"        example:"LS-001"`
	Price      decimal.Decimal    `json:"price"      validate:"required,money"         swaggertype:"number" example:"49.90"`
	Variations []VariationRequest `json:"variations" validate:"dive"`
} // @name UpdateItemRequest

// VariationResponse is one stock variation of an item.
type VariationResponse struct {
	ID       uuid.UUID `json:"id"       example:"0b6f2a44-8d0e-4b8f-9a57-5c6f3d2a1e10"`
	Size     string    `json:"size"     example:"M"`
	Quantity int       `json:"quantity" example:"4"`
} // @name VariationResponse

// ItemResponse is an item with its effective price at the time of the request.
type ItemResponse struct {
	ID         uuid.UUID           `json:"id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	Name       string              `json:"name"       example:"Linen Shirt"`
	Reference  string              `json:"reference"  example:"LS-001"`
	Price      float64             `json:"price"      example:"44.91"`
	Variations []VariationResponse `json:"variations"`
	CreatedAt  time.Time           `json:"created_at" example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item not found"`
} // @name ErrorResponse

func toItemResponse(item *models.Item) ItemResponse {
	vs := make([]VariationResponse, len(item.Variations))
	for i, v := range item.Variations {
		vs[i] = VariationResponse{ID: v.ID, Size: v.Size, Quantity: v.Quantity}
	}
	return ItemResponse{
		ID:         item.ID,
		Name:       item.Name.String(),
		Reference:  item.Reference.String(),
		Price:      item.Price.InexactFloat64(),
		Variations: vs,
		CreatedAt:  item.CreatedAt,
	}
}

func toVariationInputs(reqs []VariationRequest) []appsvcs.VariationInput {
	in := make([]appsvcs.VariationInput, len(reqs))
	for i, v := range reqs {
		in[i] = appsvcs.VariationInput{Size: v.Size, Quantity: v.Quantity}
	}
	return in
}

// writeError logs and reports server-side failures before mapping err to a response.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	if errhttp.Status(err) >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "item request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		telemetry.CaptureError(r.Context(), err)
	}
	errhttp.WriteError(w, err)
}
