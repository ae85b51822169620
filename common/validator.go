package common

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateAndDecode decodes a JSON body into payload and runs struct
// validation. On failure it writes a 400 envelope and returns false.
func ValidateAndDecode(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<10)

	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		NewAppError(http.StatusBadRequest, "Invalid request body", err).Send(w)
		return false
	}

	if err := validate.Struct(payload); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		NewAppError(http.StatusBadRequest, validationErrors.Error(), nil).Send(w)
		return false
	}

	return true
}

// ValidateStruct runs tag validation only, for payloads assembled from
// multipart form fields rather than a JSON body.
func ValidateStruct(payload interface{}) error {
	return validate.Struct(payload)
}
