// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"net/netip"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/vaulty/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// EntityName validates names used as lookup keys (users, vaults, secrets).
// Slashes and colons are excluded because names appear in URL paths and in
// the command syntax.
var EntityName = validation.NewStringRuleWithError(
	func(s string) bool {
		if s != strings.TrimSpace(s) || s == "" {
			return false
		}
		return !strings.ContainsAny(s, "/:")
	},
	validation.NewError("validation_entity_name", "must not be blank or contain '/' or ':'"),
)

// CIDR validates that a string is a CIDR range like "10.0.0.0/8".
var CIDR = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := netip.ParsePrefix(s)
		return err == nil
	},
	validation.NewError("validation_cidr", "must be a valid CIDR range"),
)

// Base64 validates that a string is valid base64-encoded data.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	_, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})
