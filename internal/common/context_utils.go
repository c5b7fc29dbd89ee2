package common

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	RequestInfoKey contextKey = "request_info"
	AdminUserKey   contextKey = "admin_user"
)

// RequestInfo carries the per-request client details that used to live in
// ambient globals. It is built once by middleware and threaded through the
// request context to whichever component needs it.
type RequestInfo struct {
	ClientIP  string
	UserAgent string
}

// GetRequestInfo extracts the request info from the context.
func GetRequestInfo(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(RequestInfoKey).(RequestInfo)
	return info, ok
}

// GetAdminUser extracts the authenticated admin subject from the context.
func GetAdminUser(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(AdminUserKey).(string)
	return sub, ok
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		*value = strings.TrimSpace(*value)
		if len(*value) > maxLength {
			return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
		}
	}
	return nil
}

// ValidateEmail checks the address syntax after trimming
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("email format is invalid")
	}
	return nil
}

// ValidateIPAddress checks the value is a literal IPv4 or IPv6 address
func ValidateIPAddress(ip, fieldName string) error {
	if strings.TrimSpace(ip) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if net.ParseIP(strings.TrimSpace(ip)) == nil {
		return fmt.Errorf("%s must be a valid IP address", fieldName)
	}
	return nil
}

// NormalizeEmail lower-cases and trims the address; used as the rate-limit key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OptionalString trims a nullable string, mapping empty to nil
func OptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
