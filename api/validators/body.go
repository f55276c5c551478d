package validators

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// DecodeJSON reads and validates a JSON request body into dst. Validation
// failures carry per-field details so the storefront can surface them.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() { _ = body.Close() }()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json body")
	}

	return ValidateStruct(dst)
}

// ValidateStruct runs struct tag validation on dst.
func ValidateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}

	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}
