package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanprice/internal/assistant"
	"github.com/smallbiznis/scanprice/internal/catalog"
	"github.com/smallbiznis/scanprice/internal/importer"
	notificationdomain "github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/pos"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrExternalCall       = errors.New("external_call_failed")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, productdomain.ErrStoreWrite):
		return http.StatusInsufficientStorage, errorPayload{
			Type:    "store_write_failed",
			Message: "the product collection could not be saved",
		}
	case errors.Is(err, ErrExternalCall),
		errors.Is(err, assistant.ErrNotConfigured),
		errors.Is(err, assistant.ErrEmptyResponse):
		return http.StatusBadGateway, errorPayload{
			Type:    "external_call_failed",
			Message: "external call failed",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, productdomain.ErrInvalidSales),
		errors.Is(err, productdomain.ErrInvalidDiscount),
		errors.Is(err, importer.ErrNoValidRows),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrUnreadable),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, assistant.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidSize):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, pos.ErrCartNotFound),
		errors.Is(err, pos.ErrProductNotFound),
		errors.Is(err, assistant.ErrTaskNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, importer.ErrNoValidRows):
		return "no_valid_rows"
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return "invalid_file_format"
	case errors.Is(err, importer.ErrUnreadable):
		return "invalid_file"
	case errors.Is(err, pos.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, assistant.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, catalog.ErrInvalidSize):
		return "invalid_size"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request", "invalid_input":
		return "request"
	case "no_valid_rows", "invalid_file_format", "invalid_file":
		return "file"
	case "empty_cart":
		return "items"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "no_valid_rows":
		return "the file contains no valid rows"
	case "invalid_file_format":
		return "only .xlsx and .csv files are supported"
	case "invalid_file":
		return "the file could not be read"
	case "empty_cart":
		return "the cart is empty"
	case "invalid_size":
		return "size is too small for the encoded code"
	default:
		return "invalid value"
	}
}
