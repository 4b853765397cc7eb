package handlers

import (
	"net/http"

	"brewsync/internal/models"

	"github.com/gin-gonic/gin"
)

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// @Summary      List brew schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, schedules"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	schedules, err := h.services.Schedules.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "schedules_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(schedules),
		"schedules": schedules,
	})
}

// @Summary      Create a brew schedule
// @Description  Days run Sunday through Saturday. secondOfDay is seconds from local midnight.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body   models.ScheduleSpec  true  "Schedule payload"
// @Success      201   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) createSchedule(c *gin.Context) {
	var spec models.ScheduleSpec
	if ok := h.bindJSONOrBadRequest(c, &spec); !ok {
		return
	}
	created, err := h.services.Schedules.Create(c.Request.Context(), spec)
	if err != nil {
		h.respondError(c, "schedule_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Delete a brew schedule
// @Tags         schedules
// @Produce      json
// @Param        id   path      string  true  "Schedule id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	if err := h.services.Schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "schedule_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// @Summary      Enable or disable a schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        id    path   string         true  "Schedule id"
// @Param        body  body   toggleRequest  true  "Desired state"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/schedules/{id}/toggle [patch]
// @Security     BearerAuth
func (h *Handler) toggleSchedule(c *gin.Context) {
	var req toggleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	id := c.Param("id")
	if err := h.services.Schedules.Toggle(c.Request.Context(), id, *req.Enabled); err != nil {
		h.respondError(c, "schedule_toggle_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "toggled", "id": id, "enabled": *req.Enabled})
}
