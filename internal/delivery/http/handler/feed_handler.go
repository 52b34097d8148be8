package handler

import (
	"net/http"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/usecase/feed"
	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedUseCase *feed.FeedUseCase
}

func NewFeedHandler(feedUseCase *feed.FeedUseCase) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
	}
}

// CandidateResponse carries the next candidate, or Found=false when none is left
type CandidateResponse struct {
	Found     bool            `json:"found"`
	Candidate *domain.Profile `json:"candidate,omitempty"`
}

// GetNextCandidate handles GET /guilds/{guild_id}/candidates/next
// @Summary Next candidate
// @Description Oldest compatible profile the caller has not swiped on yet
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Success 200 {object} CandidateResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /guilds/{guild_id}/candidates/next [get]
func (h *FeedHandler) GetNextCandidate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	candidate, found, err := h.feedUseCase.NextCandidate(c.Request.Context(), c.Param("guild_id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CandidateResponse{Found: found, Candidate: candidate})
}
