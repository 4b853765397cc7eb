package handlers

import (
	"context"
	"errors"
	"net/http"

	"brewsync/internal/aiden"
	"brewsync/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errNoSnapshotYet = "no device snapshot available yet"
	errUpstream      = "upstream cloud request failed"
)

// respondError maps service errors onto HTTP statuses and writes the JSON
// body. Validation failures and not-found are the caller's fault; upstream
// cloud failures surface as 502 so clients can tell them from local faults.
func (h *Handler) respondError(c *gin.Context, logKey string, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var verr *service.ValidationError
	var apiErr *aiden.APIError
	var transient *aiden.TransientError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoSnapshot):
		status = http.StatusConflict
		msg = errNoSnapshotYet
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		} else {
			status = http.StatusBadGateway
			msg = errUpstream
		}
	case errors.As(err, &transient),
		errors.Is(err, aiden.ErrAuthExpired),
		errors.Is(err, aiden.ErrBadCredentials):
		status = http.StatusBadGateway
		msg = errUpstream
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		msg = "request timed out"
	}

	if h.log != nil && status >= http.StatusInternalServerError {
		h.log.Errorw(logKey, "err", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
