package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tenantforge/tenantforge/internal/identity"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
)

type createUserBody struct {
	User    identity.UserInput `json:"user" binding:"required"`
	Group   string             `json:"group"`
	Access  string             `json:"access"`
	Context tenantdomain.Owner `json:"context" binding:"required"`
}

func (s *Server) createUser(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	// Group and access default to the owner's, which is what hierarchy
	// bootstrap uses. Callers may narrow them explicitly.
	group := body.Group
	if group == "" && body.Context.Valid() {
		group = body.Context.Level.OwnerGroup()
	}
	accessScope := body.Access
	if accessScope == "" && body.Context.Valid() {
		accessScope = body.Context.AccessScope()
	}

	user, err := s.users.Create(c.Request.Context(), userdomain.CreateUserRequest{
		User:    body.User,
		Group:   group,
		Access:  accessScope,
		Context: body.Context,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) removeUsers(c *gin.Context) {
	s.removeWith(c, func(ids []snowflake.ID) (int64, error) {
		return s.users.Remove(c.Request.Context(), ids)
	})
}

func (s *Server) listUsers(c *gin.Context) {
	items, err := s.users.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
