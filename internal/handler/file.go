package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// FileService is the part of the file service the handler uses
type FileService interface {
	Upload(ctx context.Context, userID, folder string, f service.FileUpload) (*service.UploadedFile, error)
	UploadMany(ctx context.Context, userID, folder string, files []service.FileUpload) ([]*service.UploadedFile, error)
	Delete(ctx context.Context, userID, publicID string) error
	MaxSize() int64
}

// FileHandler handles /api/files endpoints
type FileHandler struct {
	files  FileService
	logger *zap.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files FileService, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{files: files, logger: logger}
}

// multipart overhead allowed on top of the file payload
const formOverhead = 1 << 20

func (h *FileHandler) limitBody(c *gin.Context, files int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.files.MaxSize()*files+formOverhead)
}

// formProblem converts multipart parsing failures
func formProblem(err error) *model.ProblemDetails {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.NewBadRequestError(service.ErrFileTooLarge.Error())
	}
	if errors.Is(err, http.ErrMissingFile) {
		return model.NewBadRequestError(service.ErrFileRequired.Error())
	}
	return model.NewBadRequestError("invalid multipart form")
}

func openUpload(fh *multipart.FileHeader) (service.FileUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileUpload{}, nil, err
	}
	return service.FileUpload{Name: fh.Filename, Size: fh.Size, Reader: f}, func() { f.Close() }, nil
}

// Upload handles POST /api/files/upload
func (h *FileHandler) Upload(c *gin.Context) {
	h.limitBody(c, 1)
	fh, err := c.FormFile("file")
	if err != nil {
		WriteError(c, formProblem(err))
		return
	}
	upload, closeFn, err := openUpload(fh)
	if err != nil {
		WriteError(c, formProblem(err))
		return
	}
	defer closeFn()

	file, err := h.files.Upload(c.Request.Context(), middleware.GetUserID(c), c.PostForm("type"), upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "file uploaded", file)
}

// UploadMany handles POST /api/files/upload-multiple
func (h *FileHandler) UploadMany(c *gin.Context) {
	h.limitBody(c, service.MaxUploadFiles)
	form, err := c.MultipartForm()
	if err != nil {
		WriteError(c, formProblem(err))
		return
	}
	headers := form.File["files"]
	if len(headers) > service.MaxUploadFiles {
		WriteError(c, model.NewBadRequestError(service.ErrTooManyFiles.Error()))
		return
	}

	uploads := make([]service.FileUpload, 0, len(headers))
	for _, fh := range headers {
		upload, closeFn, err := openUpload(fh)
		if err != nil {
			WriteError(c, formProblem(err))
			return
		}
		defer closeFn()
		uploads = append(uploads, upload)
	}

	files, err := h.files.UploadMany(c.Request.Context(), middleware.GetUserID(c), c.PostForm("type"), uploads)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, "files uploaded", files)
}

// Delete handles DELETE /api/files/*publicId. Object keys contain slashes,
// so both escaped and raw keys are accepted.
func (h *FileHandler) Delete(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	if publicID == "" {
		WriteError(c, model.NewBadRequestError("publicId is required"))
		return
	}
	if err := h.files.Delete(c.Request.Context(), middleware.GetUserID(c), publicID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "file deleted", nil)
}
