package handlers

import (
	"net/http"
	"time"

	"brewsync/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Water usage rollup
// @Description  Sum of brewed water for the calendar period containing now, in the configured zone.
// @Tags         usage
// @Produce      json
// @Param        period  query   string  true  "Rollup period"  Enums(day,week,month,lifetime)
// @Success      200  {object}  map[string]interface{}  "period, volume_ml"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/usage/rollup [get]
// @Security     BearerAuth
func (h *Handler) getRollup(c *gin.Context) {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		h.respondError(c, "rollup_bad_period", err)
		return
	}
	volume, err := h.services.Usage.Rollup(c.Request.Context(), period, time.Now())
	if err != nil {
		h.respondError(c, "rollup_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":    period,
		"volume_ml": volume,
	})
}

// @Summary      Water used since the last baseline reset
// @Tags         usage
// @Produce      json
// @Success      200  {object}  map[string]int64
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/usage/since-baseline [get]
// @Security     BearerAuth
func (h *Handler) getSinceBaseline(c *gin.Context) {
	volume, err := h.services.Usage.SinceBaseline(c.Request.Context())
	if err != nil {
		h.respondError(c, "since_baseline_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volume_ml": volume})
}

// @Summary      List brew events
// @Description  Raw append-only ledger, oldest first.
// @Tags         usage
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/usage/events [get]
// @Security     BearerAuth
func (h *Handler) getEvents(c *gin.Context) {
	events, err := h.services.Usage.Events(c.Request.Context())
	if err != nil {
		h.respondError(c, "events_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Reset the usage baseline
// @Description  Moves the baseline to the current lifetime counters. Historical events are kept.
// @Tags         usage
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "no snapshot yet"
// @Router       /api/v1/usage/reset [post]
// @Security     BearerAuth
func (h *Handler) resetBaseline(c *gin.Context) {
	if err := h.services.Usage.ResetBaseline(c.Request.Context()); err != nil {
		h.respondError(c, "baseline_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "baseline_reset"})
}

// @Summary      Prune old brew events
// @Description  Drops events past the retention window; the open month is never touched.
// @Tags         usage
// @Produce      json
// @Success      200  {object}  map[string]int64  "deleted"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/usage/prune [post]
// @Security     BearerAuth
func (h *Handler) pruneEvents(c *gin.Context) {
	deleted, err := h.services.Usage.Prune(c.Request.Context())
	if err != nil {
		h.respondError(c, "prune_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
