// Package validator decodes JSON request bodies and checks them against
// go-playground/validator struct tags.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ghuser/itemcatalog/pkg/httpx"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so error keys match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Money validates as its float value: "required" rejects zero and the
	// numeric comparison tags work.
	v.RegisterCustomTypeFunc(func(rv reflect.Value) any {
		if d, ok := rv.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money", isMoney)

	return v
}

// maxMoney is the exclusive bound of a NUMERIC(12,2) column.
const maxMoney = 1e10

// isMoney accepts amounts with at most two decimal places below maxMoney in
// magnitude. Decimal fields arrive here as float64 through the custom type func.
func isMoney(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 {
		return false
	}
	v := f.Float()
	if math.IsNaN(v) || math.Abs(v) >= maxMoney {
		return false
	}
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

// ValidationErrorResponse is the 422 body written by Decode.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
} // @name ValidationErrorResponse

// Validate checks s against its validate tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// FieldErrors maps each failing field to a readable message. Keys are JSON
// paths below the root struct, e.g. "variations[1].quantity". Errors that are
// not validation errors yield an empty map.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return out
	}
	for _, fe := range ve {
		out[fieldPath(fe)] = message(fe)
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "ne":
		return fmt.Sprintf("Must not be %s", fe.Param())
	case "money":
		return "Must have at most 2 decimal places and be below 10000000000"
	default:
		return fmt.Sprintf("Failed the %q rule", fe.Tag())
	}
}

// Decode reads the JSON body into a T and validates it. On failure it writes
// the response itself and returns false: 413 for an oversized body, 400 for
// malformed JSON and 422 with per-field messages for failed rules.
func Decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		} else {
			httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		}
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Fields: FieldErrors(err),
		})
		return nil, false
	}
	return &req, true
}
