package bootstrap

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/pgm-labs/pgm-backend/internal/api/http"
	"github.com/pgm-labs/pgm-backend/internal/api/http/middleware"
	"github.com/pgm-labs/pgm-backend/internal/auth"
	projecthttp "github.com/pgm-labs/pgm-backend/internal/projects/http"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
	"github.com/pgm-labs/pgm-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string

	// AuthClient verifies Firebase ID tokens; nil swaps in the header-based
	// dev identity.
	AuthClient *fbauth.Client
	Store      repository.Store
	Commits    service.CommitFetcher
	Limiter    middleware.RateLimiter

	CORSOrigins []string
}

func BuildRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.Limiter != nil {
		r.Use(middleware.RateLimitMiddleware(deps.Limiter))
	}

	healthHandler := httpapi.NewHealthHandler(deps.ServiceName, deps.Version)
	healthHandler.RegisterRoutes(r)

	recorder := service.NewActivityRecorder(deps.Store)
	projectService := service.NewProjectService(deps.Store, deps.Commits, recorder)

	api := r.Group("/api")
	if deps.AuthClient != nil {
		api.Use(auth.RequireUser(deps.AuthClient))
	} else {
		api.Use(auth.DevUser())
	}

	projecthttp.Register(api.Group("/projects"), projectService)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-Id", "X-User-Id")
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
