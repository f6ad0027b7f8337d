package services

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/storage"
)

// ScholarshipFormRepository defines persistence for required-document
// templates.
type ScholarshipFormRepository interface {
	Create(ctx context.Context, form *models.ScholarshipForm) (*models.ScholarshipForm, error)
	GetByFormID(ctx context.Context, formID string) (*models.ScholarshipForm, error)
	GetByName(ctx context.Context, name string) (*models.ScholarshipForm, error)
	Update(ctx context.Context, formID string, name, filePath *string) (*models.ScholarshipForm, error)
	Delete(ctx context.Context, formID string) error
	List(ctx context.Context, limit, offset int, search string) ([]*models.ScholarshipForm, error)
	CountFiltered(ctx context.Context, search string) (int, error)
}

// FormService manages the staff catalog of downloadable form templates.
type FormService struct {
	repo   ScholarshipFormRepository
	store  DocumentStore
	logger *slog.Logger
}

func NewFormService(repo ScholarshipFormRepository, store DocumentStore, logger *slog.Logger) *FormService {
	return &FormService{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

const formTemplateDir = "scholarship_forms"

// Create stores the template file and registers it under a unique name.
func (s *FormService) Create(ctx context.Context, name string, fh *multipart.FileHeader) (*models.ScholarshipForm, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Form name is required")
	}
	if err := s.validateTemplate(fh); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("form name check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	formID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	relPath, err := s.store.SaveMultipart(fh, formTemplateDir, storage.StoredName(name, fh.Filename))
	if err != nil {
		s.logger.Error("failed to store form template", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.ScholarshipForm{
		FormID:   formID,
		Name:     name,
		FilePath: relPath,
	})
	if err != nil {
		if delErr := s.store.Delete(relPath); delErr != nil {
			s.logger.Error("failed to remove stored template", slog.Any("error", delErr))
		}
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create form template", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return created, nil
}

// Update renames a template and, when a new file is supplied, replaces the
// stored document. The previous file is only removed after the row update
// succeeds.
func (s *FormService) Update(ctx context.Context, formID, name string, fh *multipart.FileHeader) (*models.ScholarshipForm, error) {
	existing, err := s.repo.GetByFormID(ctx, formID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("form lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var namePtr *string
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		if other, err := s.repo.GetByName(ctx, trimmed); err == nil && other.FormID != formID {
			return nil, models.ErrConflict
		} else if err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("form name check failed", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		namePtr = &trimmed
	}

	var pathPtr *string
	if fh != nil {
		if err := s.validateTemplate(fh); err != nil {
			return nil, err
		}
		label := existing.Name
		if namePtr != nil {
			label = *namePtr
		}
		relPath, err := s.store.SaveMultipart(fh, formTemplateDir, storage.StoredName(label, fh.Filename))
		if err != nil {
			s.logger.Error("failed to store form template", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		pathPtr = &relPath
	}

	updated, err := s.repo.Update(ctx, formID, namePtr, pathPtr)
	if err != nil {
		if pathPtr != nil {
			if delErr := s.store.Delete(*pathPtr); delErr != nil {
				s.logger.Error("failed to remove stored template", slog.Any("error", delErr))
			}
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update form template", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if pathPtr != nil && existing.FilePath != "" && existing.FilePath != *pathPtr {
		if err := s.store.Delete(existing.FilePath); err != nil {
			s.logger.Error("failed to remove replaced template", slog.Any("error", err))
		}
	}

	return updated, nil
}

// Delete removes the template row and its stored file. Deletion fails with a
// conflict while any scholarship still links to the template.
func (s *FormService) Delete(ctx context.Context, formID string) error {
	existing, err := s.repo.GetByFormID(ctx, formID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("form lookup failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.Delete(ctx, formID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		if errors.Is(err, models.ErrBadRequest) || errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to delete form template", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.store.Delete(existing.FilePath); err != nil {
		s.logger.Error("failed to remove template file", slog.Any("error", err))
	}

	return nil
}

func (s *FormService) Get(ctx context.Context, formID string) (*models.ScholarshipForm, error) {
	form, err := s.repo.GetByFormID(ctx, formID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("form lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return form, nil
}

func (s *FormService) List(ctx context.Context, limit, offset int, search string) ([]*models.ScholarshipForm, int, error) {
	forms, err := s.repo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list form templates", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count form templates", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	return forms, total, nil
}

func (s *FormService) validateTemplate(fh *multipart.FileHeader) error {
	if fh == nil || fh.Size == 0 {
		return models.NewValidationError("Form file is required")
	}
	if fh.Size > maxDocumentUploadBytes {
		return models.NewValidationError("Form file exceeds the 10MB limit")
	}
	contentType, err := sniffContentType(fh)
	if err != nil {
		s.logger.Error("failed to sniff upload", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !mimeAllowed(contentType, templateMIMETypes) {
		return models.NewValidationError("Form file must be a PDF, Word document, JPEG or PNG")
	}
	return nil
}
