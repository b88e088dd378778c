// Package http exposes the project lifecycle operations as REST endpoints.
// Each endpoint maps 1:1 to a ProjectService operation and returns the
// store-confirmed project state.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/pgm-labs/pgm-backend/internal/api/http"
	"github.com/pgm-labs/pgm-backend/internal/apierr"
	"github.com/pgm-labs/pgm-backend/internal/auth"
	"github.com/pgm-labs/pgm-backend/internal/projects/service"
)

type Handler struct {
	svc *service.ProjectService
}

func Register(rg *gin.RouterGroup, svc *service.ProjectService) {
	h := &Handler{svc: svc}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)

	rg.POST("/:id/sync", h.sync)
	rg.POST("/:id/archive", h.archive)
	rg.POST("/:id/resume", h.resume)
	rg.POST("/:id/ship", h.ship)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, apierr.Invalid("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	project, err := h.svc.Create(c.Request.Context(), auth.UserUID(c), service.CreateInput{
		Name:        sanitize(req.Name),
		Description: sanitize(req.Description),
		RepoURL:     sanitize(req.RepoURL),
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": project})
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context(), auth.UserUID(c))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (h *Handler) get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), auth.UserUID(c), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, apierr.Invalid("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	project, err := h.svc.Update(c.Request.Context(), auth.UserUID(c), c.Param("id"), service.UpdateInput{
		Name:        sanitizePtr(req.Name),
		Description: sanitizePtr(req.Description),
		RepoURL:     sanitizePtr(req.RepoURL),
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserUID(c), c.Param("id")); err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) sync(c *gin.Context) {
	project, err := h.svc.Sync(c.Request.Context(), auth.UserUID(c), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (h *Handler) archive(c *gin.Context) {
	project, err := h.svc.Archive(c.Request.Context(), auth.UserUID(c), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (h *Handler) resume(c *gin.Context) {
	project, err := h.svc.Resume(c.Request.Context(), auth.UserUID(c), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (h *Handler) ship(c *gin.Context) {
	project, err := h.svc.Ship(c.Request.Context(), auth.UserUID(c), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}
