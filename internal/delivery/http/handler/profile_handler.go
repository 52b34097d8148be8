package handler

import (
	"net/http"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/usecase/profile"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase *profile.ProfileUseCase
}

func NewProfileHandler(profileUseCase *profile.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

// GetMyProfile handles GET /guilds/{guild_id}/profile
// @Summary Get my profile
// @Description Get the caller's profile in a guild
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profile [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	p, err := h.profileUseCase.GetProfile(c.Request.Context(), c.Param("guild_id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetProfileByUserID handles GET /guilds/{guild_id}/profiles/{user_id}
// @Summary Get profile by user ID
// @Description Get another member's profile in a guild
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param user_id path string true "Discord user ID"
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profiles/{user_id} [get]
func (h *ProfileHandler) GetProfileByUserID(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	p, err := h.profileUseCase.GetProfile(c.Request.Context(), c.Param("guild_id"), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// CreateMyProfile handles POST /guilds/{guild_id}/profile
// @Summary Create my profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param request body domain.ProfileAttrs true "Profile data"
// @Success 201 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profile [post]
func (h *ProfileHandler) CreateMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.ProfileAttrs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
		return
	}

	p, err := h.profileUseCase.CreateProfile(c.Request.Context(), c.Param("guild_id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// PutMyProfile handles PUT /guilds/{guild_id}/profile
// @Summary Create or replace my profile
// @Description Creates the profile or replaces its attributes; an existing match is kept
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param request body domain.ProfileAttrs true "Profile data"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profile [put]
func (h *ProfileHandler) PutMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.ProfileAttrs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
		return
	}

	p, err := h.profileUseCase.UpsertProfile(c.Request.Context(), c.Param("guild_id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateMyProfile handles PATCH /guilds/{guild_id}/profile
// @Summary Update my profile
// @Description Change only the fields present in the body
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Param request body domain.ProfilePatch true "Fields to change"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profile [patch]
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
		return
	}

	p, err := h.profileUseCase.UpdateProfile(c.Request.Context(), c.Param("guild_id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeleteMyProfile handles DELETE /guilds/{guild_id}/profile
// @Summary Delete my profile
// @Description Deletes the profile and its swipes, releasing any match
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param guild_id path string true "Guild ID"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /guilds/{guild_id}/profile [delete]
func (h *ProfileHandler) DeleteMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.profileUseCase.DeleteProfile(c.Request.Context(), c.Param("guild_id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "profile deleted",
	})
}
