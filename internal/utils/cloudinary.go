package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"ecotrack/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Upload folders under the configured root
const (
	FolderActivityImages  = "activity-images"
	FolderOrganizerProofs = "organizer-proofs"
)

// Config holds configuration settings for CloudinaryService.
type Config struct {
	MaxFileSize   int64         // Maximum allowed file size in bytes
	UploadTimeout time.Duration // Timeout for upload operations
	DeleteTimeout time.Duration // Timeout for delete operations
	MaxRetries    int           // Maximum retry attempts for uploads
	AllowedTypes  []string      // Allowed detected MIME types
}

// DefaultConfig provides default configuration values.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:   10 * 1024 * 1024, // 10MB
		UploadTimeout: 30 * time.Second,
		DeleteTimeout: 10 * time.Second,
		MaxRetries:    3,
		AllowedTypes: []string{
			"image/jpeg",
			"image/png",
			"image/gif",
			"image/webp",
			"application/pdf",
		},
	}
}

// ImageStore stores uploaded evidence files
type ImageStore interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (*UploadResult, error)
	UploadBytes(ctx context.Context, data []byte, name, folder string) (*UploadResult, error)
	DeleteFile(ctx context.Context, publicID string) error
}

// CloudinaryService wraps the Cloudinary client and configuration.
type CloudinaryService struct {
	Client *cloudinary.Cloudinary
	Config Config
	Logger *zap.Logger
	root   string
}

// UploadResult contains the result of a file upload.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Custom errors for specific failure cases.
var (
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrUnableToReadFile   = errors.New("unable to read file")
	ErrMissingCredentials = errors.New("cloudinary credentials are missing")
	ErrUploadFailed       = errors.New("failed to upload file")
	ErrDeleteFailed       = errors.New("failed to delete file")
)

// NewCloudinaryService builds the store from configuration
func NewCloudinaryService(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryService, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	root := cfg.Folder
	if root == "" {
		root = "ecotrack"
	}

	logger.Info("Cloudinary service initialized", zap.String("folder", root))
	return &CloudinaryService{
		Client: cld,
		Config: DefaultConfig(),
		Logger: logger,
		root:   root,
	}, nil
}

func ptrBool(b bool) *bool {
	return &b
}

// UploadFile validates and uploads a multipart file into folder
func (c *CloudinaryService) UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (*UploadResult, error) {
	if file.Size > c.Config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d bytes", ErrFileTooLarge, file.Size, c.Config.MaxFileSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToReadFile, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, c.Config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToReadFile, err)
	}

	return c.UploadBytes(ctx, data, file.Filename, folder)
}

// UploadBytes uploads raw file content with retries
func (c *CloudinaryService) UploadBytes(ctx context.Context, data []byte, name, folder string) (*UploadResult, error) {
	if err := c.Validate(data); err != nil {
		return nil, err
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.Config.UploadTimeout)
	defer cancel()

	uploadParams := uploader.UploadParams{
		Folder:         path.Join(c.root, folder),
		UseFilename:    ptrBool(name != ""),
		UniqueFilename: ptrBool(true),
		ResourceType:   "auto",
	}

	var result *uploader.UploadResult
	operation := func() error {
		var opErr error
		result, opErr = c.Client.Upload.Upload(ctx, bytes.NewReader(data), uploadParams)
		if opErr == nil && result != nil && result.Error.Message != "" {
			opErr = errors.New(result.Error.Message)
		}
		return opErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.Config.UploadTimeout / 2
	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.Config.MaxRetries)), ctx),
		func(err error, d time.Duration) {
			c.Logger.Warn("Upload attempt failed",
				zap.String("filename", name),
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		c.Logger.Error("All upload attempts failed",
			zap.String("filename", name),
			zap.Int("attempts", c.Config.MaxRetries),
			zap.Error(err))
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrUploadFailed, c.Config.MaxRetries, err)
	}

	c.Logger.Info("File uploaded",
		zap.String("folder", uploadParams.Folder),
		zap.Int("size", len(data)),
		zap.Duration("duration", time.Since(startTime)),
		zap.String("public_id", result.PublicID))

	return &UploadResult{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Size:     result.Bytes,
	}, nil
}

// DeleteFile removes a file from Cloudinary by its public ID.
func (c *CloudinaryService) DeleteFile(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.Config.DeleteTimeout)
	defer cancel()

	if _, err := c.Client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		c.Logger.Error("Failed to delete file", zap.String("public_id", publicID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	c.Logger.Info("File deleted", zap.String("public_id", publicID))
	return nil
}

// Validate checks size and sniffed content type
func (c *CloudinaryService) Validate(data []byte) error {
	return ValidateUpload(data, c.Config)
}

// ValidateUpload checks data against cfg without a Cloudinary client
func ValidateUpload(data []byte, cfg Config) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty file", ErrUnableToReadFile)
	}
	if int64(len(data)) > cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d bytes", ErrFileTooLarge, len(data), cfg.MaxFileSize)
	}

	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !slices.Contains(cfg.AllowedTypes, contentType) {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}
	return nil
}
