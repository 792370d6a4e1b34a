package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tenantforge/tenantforge/internal/authctx"
)

// HeaderUser carries the acting user id resolved by the edge gateway.
// Authentication itself happens upstream; this layer only propagates the
// identity into the request context.
const HeaderUser = "X-User-ID"

func (s *Server) AuthContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUser))
		if raw != "" {
			if userID, err := snowflake.ParseString(raw); err == nil {
				ctx := authctx.WithUserID(c.Request.Context(), userID)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
