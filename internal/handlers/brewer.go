package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// Snapshots older than this are flagged stale in responses.
const staleAfter = 5 * time.Minute

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get cached device snapshot
// @Description  Serves the last successfully polled device state. Never touches the network.
// @Tags         brewer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "snapshot, version, stale"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "no snapshot yet"
// @Router       /api/v1/brewer/snapshot [get]
// @Security     BearerAuth
func (h *Handler) getSnapshot(c *gin.Context) {
	snap, ok := h.services.Brewer.Snapshot()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": errNoSnapshotYet})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"version":  h.services.Brewer.SnapshotVersion(),
		"stale":    h.services.Brewer.IsStale(staleAfter),
	})
}

// @Summary      Refresh device snapshot
// @Description  Coalesces with any in-flight poll. force=true bypasses the refresh throttle.
// @Tags         brewer
// @Produce      json
// @Param        force  query   bool  false  "Bypass the min-interval throttle"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/brewer/refresh [post]
// @Security     BearerAuth
func (h *Handler) refresh(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	snap, err := h.services.Brewer.Refresh(c.Request.Context(), force)
	if err != nil {
		h.respondError(c, "refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"version":  h.services.Brewer.SnapshotVersion(),
	})
}
