package handlers

import (
	"net/http"

	"brewsync/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      List brew profiles
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, profiles"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/profiles [get]
// @Security     BearerAuth
func (h *Handler) listProfiles(c *gin.Context) {
	profiles, err := h.services.Profiles.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "profiles_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(profiles),
		"profiles": profiles,
	})
}

// @Summary      Get one brew profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile id"
// @Success      200  {object}  models.Profile
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/profiles/{id} [get]
// @Security     BearerAuth
func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.services.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "profile_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary      Create a brew profile
// @Description  Validated locally before the cloud call; out-of-range values never leave the process.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        body  body   models.ProfileSpec  true  "Profile payload"
// @Success      201   {object}  models.Profile
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/profiles [post]
// @Security     BearerAuth
func (h *Handler) createProfile(c *gin.Context) {
	var spec models.ProfileSpec
	if ok := h.bindJSONOrBadRequest(c, &spec); !ok {
		return
	}
	created, err := h.services.Profiles.Create(c.Request.Context(), spec)
	if err != nil {
		h.respondError(c, "profile_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Delete a brew profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/profiles/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteProfile(c *gin.Context) {
	if err := h.services.Profiles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "profile_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
