package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tenantforge/tenantforge/internal/identity"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
)

type createCustomerBody struct {
	Name        string              `json:"name" binding:"required"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

type createOrganizationBody struct {
	CustomerID  string              `json:"customer_id" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	InitialUser *identity.UserInput `json:"initial_user,omitempty"`
}

type createInstitutionBody struct {
	CustomerID     string              `json:"customer_id" binding:"required"`
	OrganizationID string              `json:"organization_id" binding:"required"`
	Name           string              `json:"name" binding:"required"`
	InitialUser    *identity.UserInput `json:"initial_user,omitempty"`
}

type createOrganizationUnitBody struct {
	CustomerID     string              `json:"customer_id" binding:"required"`
	OrganizationID string              `json:"organization_id" binding:"required"`
	InstitutionID  string              `json:"institution_id" binding:"required"`
	Name           string              `json:"name" binding:"required"`
	InitialUser    *identity.UserInput `json:"initial_user,omitempty"`
}

type removeBody struct {
	IDs []string `json:"ids" binding:"required"`
}

func parseIDs(raw []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		id, err := snowflake.ParseString(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errorPayload{
		Type:    "invalid_request",
		Message: err.Error(),
	}})
}

func (s *Server) createCustomer(c *gin.Context) {
	var body createCustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := s.tenants.CreateCustomer(c.Request.Context(), tenantdomain.CreateCustomerRequest{
		Name:        body.Name,
		InitialUser: body.InitialUser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (s *Server) createOrganization(c *gin.Context) {
	var body createOrganizationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	customerID, err := snowflake.ParseString(body.CustomerID)
	if err != nil {
		badRequest(c, err)
		return
	}
	org, err := s.tenants.CreateOrganization(c.Request.Context(), tenantdomain.CreateOrganizationRequest{
		CustomerID:  customerID,
		Name:        body.Name,
		InitialUser: body.InitialUser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) createInstitution(c *gin.Context) {
	var body createInstitutionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	customerID, err := snowflake.ParseString(body.CustomerID)
	if err != nil {
		badRequest(c, err)
		return
	}
	organizationID, err := snowflake.ParseString(body.OrganizationID)
	if err != nil {
		badRequest(c, err)
		return
	}
	inst, err := s.tenants.CreateInstitution(c.Request.Context(), tenantdomain.CreateInstitutionRequest{
		Scope:       tenantdomain.OrganizationID{CustomerID: customerID, ID: organizationID},
		Name:        body.Name,
		InitialUser: body.InitialUser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

func (s *Server) createOrganizationUnit(c *gin.Context) {
	var body createOrganizationUnitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	customerID, err := snowflake.ParseString(body.CustomerID)
	if err != nil {
		badRequest(c, err)
		return
	}
	organizationID, err := snowflake.ParseString(body.OrganizationID)
	if err != nil {
		badRequest(c, err)
		return
	}
	institutionID, err := snowflake.ParseString(body.InstitutionID)
	if err != nil {
		badRequest(c, err)
		return
	}
	unit, err := s.tenants.CreateOrganizationUnit(c.Request.Context(), tenantdomain.CreateOrganizationUnitRequest{
		Scope: tenantdomain.InstitutionID{
			CustomerID:     customerID,
			OrganizationID: organizationID,
			ID:             institutionID,
		},
		Name:        body.Name,
		InitialUser: body.InitialUser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (s *Server) removeWith(c *gin.Context, remove func(ids []snowflake.ID) (int64, error)) {
	var body removeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	ids, err := parseIDs(body.IDs)
	if err != nil {
		badRequest(c, err)
		return
	}
	count, err := remove(ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (s *Server) removeCustomers(c *gin.Context) {
	s.removeWith(c, func(ids []snowflake.ID) (int64, error) {
		return s.tenants.RemoveCustomers(c.Request.Context(), ids)
	})
}

func (s *Server) removeOrganizations(c *gin.Context) {
	s.removeWith(c, func(ids []snowflake.ID) (int64, error) {
		return s.tenants.RemoveOrganizations(c.Request.Context(), ids)
	})
}

func (s *Server) removeInstitutions(c *gin.Context) {
	s.removeWith(c, func(ids []snowflake.ID) (int64, error) {
		return s.tenants.RemoveInstitutions(c.Request.Context(), ids)
	})
}

func (s *Server) removeOrganizationUnits(c *gin.Context) {
	s.removeWith(c, func(ids []snowflake.ID) (int64, error) {
		return s.tenants.RemoveOrganizationUnits(c.Request.Context(), ids)
	})
}

func (s *Server) listCustomers(c *gin.Context) {
	items, err := s.tenants.ListCustomers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) listOrganizations(c *gin.Context) {
	items, err := s.tenants.ListOrganizations(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) listInstitutions(c *gin.Context) {
	items, err := s.tenants.ListInstitutions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) listOrganizationUnits(c *gin.Context) {
	items, err := s.tenants.ListOrganizationUnits(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
