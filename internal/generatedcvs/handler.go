package generatedcvs

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/model"
	"cv-builder/cv/pipeline"
	"cv-builder/cv/render"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

const (
	maxRequestSize = 10 << 20 // 10MB, photo and job description included
	maxJSONSize    = 1 << 20
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cvs", h.create)
	rg.GET("/cvs", h.list)
	rg.GET("/cvs/:id", h.get)
	rg.GET("/cvs/:id/download", h.download)
	rg.DELETE("/cvs/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

	var (
		raw []byte
		in  CreateInput
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		raw = []byte(c.PostForm("request"))
		if len(raw) == 0 {
			respond.ValidationError(c, "request field is required", []string{"request"})
			return
		}
		photo, closePhoto, ok := formUpload(c, "photo")
		if !ok {
			return
		}
		defer closePhoto()
		jd, closeJD, ok := formUpload(c, "jobDescription")
		if !ok {
			return
		}
		defer closeJD()
		in.Photo, in.JobDescription = photo, jd
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONSize+1))
		if err != nil || len(body) > maxJSONSize {
			respond.ValidationError(c, "invalid request body", nil)
			return
		}
		raw = body
	}

	req, err := model.DecodeRequest(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	in.Request = req

	cv, err := h.Svc.Create(c.Request.Context(), ownerID, in)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			respond.ValidationError(c, "missing required fields", verr.Fields)
		case errors.Is(err, ErrInvalidInput):
			respond.ValidationError(c, err.Error(), nil)
		default:
			respond.Internal(c, "failed to generate cv", err)
		}
		return
	}

	c.Set(middleware.CVIDKey, cv.ID)
	c.Set(middleware.VariantKey, cv.Variant)
	respond.JSON(c, http.StatusCreated, toResponse(cv))
}

// formUpload returns the optional file under field. ok is false when a
// response was already written.
func formUpload(c *gin.Context, field string) (*Upload, func(), bool) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, true
	}
	if err != nil {
		respond.ValidationError(c, "unable to read "+field, []string{field})
		return nil, nil, false
	}
	var file multipart.File
	if file, err = header.Open(); err != nil {
		respond.ValidationError(c, "unable to read "+field, []string{field})
		return nil, nil, false
	}
	return &Upload{FileName: header.Filename, Body: file}, func() { file.Close() }, true
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	cv, err := h.Svc.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.Set(middleware.CVIDKey, cv.ID)
	respond.OK(c, toResponse(cv))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	cvs, err := h.Svc.List(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.ValidationError(c, err.Error(), nil)
			return
		}
		respond.Internal(c, "failed to list cvs", err)
		return
	}

	resp := make([]GeneratedCVResponse, 0, len(cvs))
	for _, cv := range cvs {
		resp = append(resp, toResponse(cv))
	}
	respond.OK(c, resp)
}

func (h *Handler) download(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	format, err := pipeline.ParseFormat(c.Query("format"))
	if err != nil {
		respond.ValidationError(c, err.Error(), []string{"format"})
		return
	}

	body, artifact, err := h.Svc.Open(c.Request.Context(), ownerID, c.Param("id"), format)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	defer body.Close()

	contentType := render.DOCXContentType
	if format == pipeline.FormatPDF {
		contentType = render.PDFContentType
	}
	c.Set(middleware.CVIDKey, c.Param("id"))
	respond.Attachment(c, artifact.FileName, contentType, artifact.SizeBytes, body)
}

func (h *Handler) delete(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeLookupError(c, err)
		return
	}
	c.Set(middleware.CVIDKey, c.Param("id"))
	c.Status(http.StatusNoContent)
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.ValidationError(c, err.Error(), nil)
	default:
		respond.Internal(c, "failed to fetch cv", err)
	}
}
