// Package httpapi exposes the program service over a REST surface. The
// layer is intentionally thin: it binds and validates requests, calls the
// service, and translates service errors to status codes.
package httpapi

import (
	"context"
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

// ProgramService is the use-case surface the handlers call.
type ProgramService interface {
	Get(ctx context.Context, id string) (*programs.Program, error)
	GetAll(ctx context.Context) ([]*programs.Program, error)
	Create(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error)
	Update(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error)
	Delete(ctx context.Context, id string) error
}

var _ ProgramService = (*programs.Service)(nil)

// Handler holds the handler dependencies.
type Handler struct {
	service ProgramService
	version string
	log     logging.Logger
}

func NewHandler(service ProgramService, version string, log logging.Logger) *Handler {
	return &Handler{service: service, version: version, log: log}
}

// NewRouter wires the REST routes onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/version", h.GetVersion)

	api := r.Group("/api/v1")
	{
		api.GET("/programs", h.ListPrograms)
		api.POST("/programs", h.CreateProgram)
		api.GET("/programs/:id", h.GetProgram)
		api.PUT("/programs/:id", h.UpdateProgram)
		api.DELETE("/programs/:id", h.DeleteProgram)
	}

	return r
}
