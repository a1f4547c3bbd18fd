// internal/services/file_service.go
package services

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

// fileService stores evidence images and organizer proofs
type fileService struct {
	baseService
	images utils.ImageStore
}

// NewFileService creates the upload service. images may be nil when no
// store is configured.
func NewFileService(deps *Dependencies) FileService {
	return &fileService{
		baseService: newBaseService(deps, "files"),
		images:      deps.Images,
	}
}

func (s *fileService) Upload(ctx context.Context, userID string, kind UploadKind, file *multipart.FileHeader) (*utils.UploadResult, error) {
	if s.images == nil {
		return nil, NewServiceUnavailableError("File uploads are not configured")
	}
	if file == nil {
		return nil, InvalidInputError("file", "is required")
	}

	folder, err := uploadFolder(kind)
	if err != nil {
		return nil, err
	}
	if err := validateFilename(file.Filename); err != nil {
		return nil, err
	}

	result, err := s.images.UploadFile(ctx, file, folder)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrFileTooLarge):
			return nil, InvalidInputError("file", "file is too large")
		case errors.Is(err, utils.ErrInvalidContentType):
			return nil, InvalidInputError("file", "unsupported file type")
		case errors.Is(err, utils.ErrUnableToReadFile):
			return nil, InvalidInputError("file", "file could not be read")
		}
		s.logger.Error("Upload failed",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, NewServiceUnavailableError("File storage is temporarily unavailable")
	}

	s.logger.Info("File uploaded",
		zap.String("user_id", userID),
		zap.String("kind", string(kind)),
		zap.String("public_id", result.PublicID))
	return result, nil
}

func uploadFolder(kind UploadKind) (string, error) {
	switch kind {
	case UploadActivity, "":
		return utils.FolderActivityImages, nil
	case UploadProof:
		return utils.FolderOrganizerProofs, nil
	}
	return "", InvalidInputError("kind", "must be activity or proof")
}

// validateFilename rejects names with path or shell metacharacters
func validateFilename(filename string) error {
	if filename == "" {
		return InvalidInputError("file", "filename is required")
	}
	for _, char := range []string{"../", "..\\", "<", ">", ":", "\"", "|", "?", "*"} {
		if strings.Contains(filename, char) {
			return InvalidInputError("file", "filename contains invalid characters")
		}
	}
	if filepath.Ext(filename) == "" {
		return InvalidInputError("file", "file must have an extension")
	}
	return nil
}
