package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// requestValidate checks decoded request bodies. Field names in errors
// follow the json tags.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// predictRequest mirrors the OpenAPI schema for POST /predict.
// Experience stays a json.Number so the caller's digits reach the codec.
type predictRequest struct {
	YearsExperience []json.Number `json:"years_experience" validate:"required,min=1,dive,required"`
	City            []string      `json:"city,omitempty"`
	JobLevel        []string      `json:"job_level,omitempty"`
}

func (p predictRequest) literals() []string {
	out := make([]string, len(p.YearsExperience))
	for i, n := range p.YearsExperience {
		out[i] = n.String()
	}
	return out
}

// feedbackRequest mirrors the OpenAPI schema for PUT /history/{id}/feedback.
type feedbackRequest struct {
	ActualSalaries []float64 `json:"actual_salaries" validate:"required,min=1,max=100,dive,gt=0"`
}

// decodeBody reads one JSON object into dst. Malformed JSON is a bad
// request; a well-formed body that breaks the schema is a validation error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (int, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return http.StatusUnprocessableEntity, fmt.Errorf("%w: field %s must be %s", ErrBadRequest, typeErr.Field, typeErr.Type)
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, fmt.Errorf("%w: empty body", ErrBadRequest)
		default:
			return http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	if dec.More() {
		return http.StatusBadRequest, fmt.Errorf("%w: trailing data after JSON object", ErrBadRequest)
	}
	if err := requestValidate.Struct(dst); err != nil {
		return http.StatusUnprocessableEntity, describeValidation(err)
	}
	return 0, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(parts, "; "))
}
