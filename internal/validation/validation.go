// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/workspace-service/internal/http/types"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validator decodes request bodies and checks their struct tags
type Validator struct {
	validate *validator.Validate
}

// Struct validates v and converts the first failing field into an invalid_request error
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return types.InvalidRequest(message(verrs[0]))
	}

	return types.InvalidRequest(err.Error())
}

// MaxBodySize bounds every JSON request body read by the handlers and the guard
const MaxBodySize int64 = 1 << 20

// DecodeJSON reads a JSON body into dst and validates it
func (v *Validator) DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			return types.PayloadTooLarge(MaxBodySize)
		case errors.Is(err, io.EOF):
			return types.InvalidRequest("request body is empty")
		}
		return types.InvalidRequest("malformed request body")
	}

	return v.Struct(dst)
}

func message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "slug":
		return fmt.Sprintf("%s must contain lowercase letters, digits and dashes only", field)
	case "dive", "uuid":
		return fmt.Sprintf("%s is not a valid identifier", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func NewValidator() *Validator {
	v := new(Validator)
	v.validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names instead of Go field names
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return v
}
