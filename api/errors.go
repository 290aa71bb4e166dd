package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err), errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}

	switch domain.AttachReasonOf(err) {
	case domain.AttachTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.AttachUnsupportedType:
		return http.StatusUnsupportedMediaType
	case domain.AttachStorage:
		return http.StatusInternalServerError
	}

	switch domain.ImportReasonOf(err) {
	case domain.ImportInvalidReference, domain.ImportInvalidDocument:
		return http.StatusBadRequest
	case domain.ImportNotFound, domain.ImportNoCandidatesFound:
		return http.StatusNotFound
	case domain.ImportNetworkError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if reason := domain.ImportReasonOf(err); reason != "" {
		body["reason"] = reason
	}
	if reason := domain.AttachReasonOf(err); reason != "" {
		body["reason"] = reason
	}
	var verr domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	c.JSON(statusOf(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
