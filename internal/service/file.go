package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/storage"
)

// Upload limits
const (
	DefaultMaxUploadSize = 5 << 20
	MaxUploadFiles       = 10
)

// allowedImageTypes maps sniffed content types to the stored extension
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// uploadFolders are the accepted values of the upload "type" field
var uploadFolders = map[string]bool{
	"avatar":  true,
	"logo":    true,
	"poster":  true,
	"general": true,
}

// FileUpload is one file received from a multipart form
type FileUpload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// UploadedFile is the public description of a stored file
type UploadedFile struct {
	URL         string `json:"url"`
	PublicID    string `json:"publicId"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// FileService stores images in object storage
type FileService struct {
	store   storage.Store
	maxSize int64
	logger  *zap.Logger
}

// NewFileService creates a new file service. maxSize <= 0 uses DefaultMaxUploadSize.
func NewFileService(store storage.Store, maxSize int64, logger *zap.Logger) *FileService {
	if store == nil {
		store = storage.Disabled{}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{store: store, maxSize: maxSize, logger: logger}
}

// MaxSize returns the per-file size limit in bytes
func (s *FileService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates and stores one image under folder
func (s *FileService) Upload(ctx context.Context, userID, folder string, f FileUpload) (*UploadedFile, error) {
	if f.Reader == nil || f.Size == 0 {
		return nil, ErrFileRequired
	}
	if f.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if !uploadFolders[folder] {
		folder = "general"
	}

	// Sniff from the first 512 bytes and replay them in front of the rest
	head := make([]byte, 512)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedFileType
	}

	key := path.Join("eventup", folder, userID, uuid.NewString()+ext)
	obj, err := s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), f.Reader), f.Size, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, ErrStorageUnavailable
		}
		s.logger.Error("uploading file", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &UploadedFile{
		URL:         obj.URL,
		PublicID:    obj.Key,
		Size:        f.Size,
		ContentType: contentType,
	}, nil
}

// UploadMany stores up to MaxUploadFiles images. Nothing is kept when one fails.
func (s *FileService) UploadMany(ctx context.Context, userID, folder string, files []FileUpload) ([]*UploadedFile, error) {
	if len(files) == 0 {
		return nil, ErrFileRequired
	}
	if len(files) > MaxUploadFiles {
		return nil, ErrTooManyFiles
	}

	uploaded := make([]*UploadedFile, 0, len(files))
	for _, f := range files {
		u, err := s.Upload(ctx, userID, folder, f)
		if err != nil {
			for _, done := range uploaded {
				if rmErr := s.store.Remove(ctx, done.PublicID); rmErr != nil {
					s.logger.Warn("removing partial upload", zap.String("key", done.PublicID), zap.Error(rmErr))
				}
			}
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		uploaded = append(uploaded, u)
	}
	return uploaded, nil
}

// Delete removes a stored object by its public id. Keys are
// eventup/<folder>/<userID>/<name>, and only the uploader may delete one.
func (s *FileService) Delete(ctx context.Context, userID, publicID string) error {
	publicID = strings.TrimPrefix(publicID, "/")
	if publicID == "" || strings.Contains(publicID, "..") {
		return ErrFileRequired
	}
	if !ownsKey(userID, publicID) {
		return ErrFileForbidden
	}
	if err := s.store.Remove(ctx, publicID); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return ErrStorageUnavailable
		}
		return fmt.Errorf("deleting %s: %w", publicID, err)
	}
	return nil
}

func ownsKey(userID, key string) bool {
	parts := strings.Split(key, "/")
	return userID != "" && len(parts) >= 4 && parts[0] == "eventup" && parts[2] == userID
}
