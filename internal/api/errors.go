package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
)

// writeError maps the typed error taxonomy to HTTP statuses. Anything
// untyped is reported as an internal failure without leaking the cause.
func writeError(c *gin.Context, err error) {
	now := time.Now()

	var notFound *apperrors.NotFoundError
	var format *apperrors.FormatError
	var unknown *apperrors.UnknownFieldError
	var invalidSort *apperrors.InvalidSortFieldError
	var validation *apperrors.ValidationError
	var dbErr *apperrors.DatabaseError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound,
			apperrors.NewResponse(apperrors.CodeNotFound, notFound.Error(), nil, now))
	case errors.As(err, &format):
		c.JSON(http.StatusBadRequest,
			apperrors.NewResponse(apperrors.CodeFormat, format.Error(), nil, now))
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest,
			apperrors.NewResponse(apperrors.CodeUnknownField, unknown.Error(),
				map[string]any{"field": unknown.Field}, now))
	case errors.As(err, &invalidSort):
		c.JSON(http.StatusBadRequest,
			apperrors.NewResponse(apperrors.CodeInvalidSort, invalidSort.Error(),
				map[string]any{"field": invalidSort.Field}, now))
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest,
			apperrors.NewResponse(apperrors.CodeValidation, validation.Message, validation.Details, now))
	case errors.As(err, &dbErr):
		log.Printf("[api] database error: %v", err)
		c.JSON(http.StatusInternalServerError,
			apperrors.NewResponse(apperrors.CodeDatabase, "database operation failed", nil, now))
	default:
		log.Printf("[api] internal error: %v", err)
		c.JSON(http.StatusInternalServerError,
			apperrors.NewResponse(apperrors.CodeInternal, "internal server error", nil, now))
	}
}

// badRequest writes a 400 validation envelope for malformed input caught at
// the binding layer.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest,
		apperrors.NewResponse(apperrors.CodeValidation, message, nil, time.Now()))
}
