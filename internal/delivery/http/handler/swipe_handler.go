package handler

import (
	"net/http"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
)

type SwipeHandler struct {
	swipeUseCase *swipe.SwipeUseCase
}

func NewSwipeHandler(swipeUseCase *swipe.SwipeUseCase) *SwipeHandler {
	return &SwipeHandler{
		swipeUseCase: swipeUseCase,
	}
}

// SwipeRequest represents a swipe decision
type SwipeRequest struct {
	TargetID  string `json:"target_id" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=right left"`
}

// UnmatchRequest optionally names the partner to unmatch from
type UnmatchRequest struct {
	PartnerID string `json:"partner_id"`
}

// UnmatchResponse names the former partner
type UnmatchResponse struct {
	PartnerID string `json:"partner_id"`
}

// PairStateResponse reports how two members have swiped on each other
type PairStateResponse struct {
	UserID  string           `json:"user_id"`
	OtherID string           `json:"other_id"`
	State   domain.PairState `json:"state"`
}

// CreateSwipe handles POST /guilds/{guild_id}/swipes
// @Summary Swipe
// @Description Record a swipe; a mutual right swipe forms a match
// @Tags swipe
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param request body SwipeRequest true "Swipe decision"
// @Success 200 {object} domain.SwipeResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /guilds/{guild_id}/swipes [post]
func (h *SwipeHandler) CreateSwipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
		return
	}

	result, err := h.swipeUseCase.Swipe(c.Request.Context(), c.Param("guild_id"), userID, req.TargetID, req.Direction == "right")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Unmatch handles POST /guilds/{guild_id}/unmatch
// @Summary Unmatch
// @Description Clear the caller's current match, or the match with partner_id when given
// @Tags swipe
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param request body UnmatchRequest false "Partner to unmatch from"
// @Success 200 {object} UnmatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/unmatch [post]
func (h *SwipeHandler) Unmatch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UnmatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "invalid request body",
			})
			return
		}
	}

	ctx, guildID := c.Request.Context(), c.Param("guild_id")
	partnerID := req.PartnerID
	var err error
	if partnerID != "" {
		err = h.swipeUseCase.UnmatchPair(ctx, guildID, userID, partnerID)
	} else {
		partnerID, err = h.swipeUseCase.Unmatch(ctx, guildID, userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnmatchResponse{PartnerID: partnerID})
}

// GetPairState handles GET /guilds/{guild_id}/pairs/{user_id}
// @Summary Pair state
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param user_id path string true "Other member's Discord user ID"
// @Success 200 {object} PairStateResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /guilds/{guild_id}/pairs/{user_id} [get]
func (h *SwipeHandler) GetPairState(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	otherID := c.Param("user_id")

	state, err := h.swipeUseCase.PairState(c.Request.Context(), c.Param("guild_id"), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PairStateResponse{UserID: userID, OtherID: otherID, State: state})
}
