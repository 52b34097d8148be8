package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondError maps a usecase error onto a status code and error body.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Problems: validation.Problems})
	case errors.Is(err, domain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	case errors.Is(err, domain.ErrSwipeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "swipe not found"})
	case errors.Is(err, domain.ErrProfileAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "profile already exists"})
	case errors.Is(err, domain.ErrAlreadyMatched):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user is already matched"})
	case errors.Is(err, domain.ErrNotMatched):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user is not matched"})
	case domain.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// currentUser returns the caller id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}
	userID, ok := value.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}
	return userID, true
}
