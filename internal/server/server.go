// Package server exposes the provisioning service over HTTP. The surrounding
// API layer is thin: it binds requests, resolves the acting user, and calls
// the orchestrator.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenantforge/tenantforge/internal/config"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Engine  *gin.Engine
	Tenants tenantdomain.Service
	Users   userdomain.Service
}

type Server struct {
	log     *zap.Logger
	cfg     config.Config
	engine  *gin.Engine
	tenants tenantdomain.Service
	users   userdomain.Service
}

func NewEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		log:     p.Log.Named("server"),
		cfg:     p.Config,
		engine:  p.Engine,
		tenants: p.Tenants,
		users:   p.Users,
	}
}

// RegisterAPIRoutes mounts the provisioning API under /v1.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1", s.AuthContext())

	v1.POST("/customers", s.createCustomer)
	v1.DELETE("/customers", s.removeCustomers)
	v1.GET("/customers", s.listCustomers)
	v1.PUT("/customers/:id", notImplemented)

	v1.POST("/organizations", s.createOrganization)
	v1.DELETE("/organizations", s.removeOrganizations)
	v1.GET("/organizations", s.listOrganizations)
	v1.PUT("/organizations/:id", notImplemented)

	v1.POST("/institutions", s.createInstitution)
	v1.DELETE("/institutions", s.removeInstitutions)
	v1.GET("/institutions", s.listInstitutions)
	v1.PUT("/institutions/:id", notImplemented)

	v1.POST("/organization-units", s.createOrganizationUnit)
	v1.DELETE("/organization-units", s.removeOrganizationUnits)
	v1.GET("/organization-units", s.listOrganizationUnits)
	v1.PUT("/organization-units/:id", notImplemented)

	v1.POST("/users", s.createUser)
	v1.DELETE("/users", s.removeUsers)
	v1.GET("/users", s.listUsers)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "update is not implemented"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			s.log.Info("http listening", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Module wires the HTTP surface.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)
