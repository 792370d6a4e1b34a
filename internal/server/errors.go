package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// AbortWithError maps provisioning errors onto HTTP statuses. Lock timeouts
// are transient, so they surface as 503 with a retry hint.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := "internal_error"

	var pe *tenantdomain.Error
	switch {
	case errors.Is(err, tenantdomain.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, userdomain.ErrAccessMismatch):
		status, kind = http.StatusBadRequest, "access_mismatch"
	case errors.As(err, &pe):
		switch pe.Kind {
		case tenantdomain.KindNameConflict:
			status, kind = http.StatusConflict, "name_conflict"
		case tenantdomain.KindLockTimeout:
			status, kind = http.StatusServiceUnavailable, "lock_timeout"
			c.Header("Retry-After", "5")
		default:
			kind = string(pe.Kind)
		}
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: errorPayload{
		Type:    kind,
		Message: err.Error(),
	}})
}
