package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

// filePartName is the multipart field carrying the audio file.
const filePartName = "program_file"

type createForm struct {
	Title           string  `form:"title" binding:"required"`
	Description     *string `form:"description"`
	AirDate         *string `form:"air_date" binding:"omitempty,datetime=2006-01-02"`
	SpotifyPlaylist *string `form:"spotify_playlist" binding:"omitempty,url"`
}

type updateForm struct {
	Title           *string `form:"title" binding:"omitempty,min=1"`
	Description     *string `form:"description"`
	AirDate         *string `form:"air_date" binding:"omitempty,datetime=2006-01-02"`
	SpotifyPlaylist *string `form:"spotify_playlist" binding:"omitempty,url"`
}

func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

func (h *Handler) ListPrograms(c *gin.Context) {
	result, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetProgram(c *gin.Context) {
	id, ok := h.programID(c)
	if !ok {
		return
	}

	program, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *Handler) CreateProgram(c *gin.Context) {
	var form createForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	header, err := c.FormFile(filePartName)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "program_file part is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "cannot read program_file part"})
		return
	}
	defer file.Close()

	in := &programs.ProgramCreate{
		Title:           form.Title,
		Description:     form.Description,
		AirDate:         form.AirDate,
		SpotifyPlaylist: form.SpotifyPlaylist,
	}

	program, err := h.service.Create(c.Request.Context(), in, file, header.Size)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

func (h *Handler) UpdateProgram(c *gin.Context) {
	id, ok := h.programID(c)
	if !ok {
		return
	}

	var form updateForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	in := &programs.ProgramUpdate{
		Title:           form.Title,
		Description:     form.Description,
		AirDate:         form.AirDate,
		SpotifyPlaylist: form.SpotifyPlaylist,
	}

	// The file part is optional on update; absence means a metadata-only
	// change.
	var body io.Reader
	var size int64
	if header, err := c.FormFile(filePartName); err == nil {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "cannot read program_file part"})
			return
		}
		defer file.Close()
		body = file
		size = header.Size
	}

	program, err := h.service.Update(c.Request.Context(), id, in, body, size)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *Handler) DeleteProgram(c *gin.Context) {
	id, ok := h.programID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// programID validates the path parameter and replies 422 on a malformed id.
func (h *Handler) programID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := uuid.Validate(id); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be a valid UUID"})
		return "", false
	}
	return id, true
}

// abortWithError maps service errors to status codes. Not-found conditions
// become 404; every storage failure surfaces as 500.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "program not found"})
		return
	}
	h.log.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}
