package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/storage"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// DocumentService stores library files and their metadata.
type DocumentService struct {
	documents repository.DocumentRepository
	objects   storage.Store
	logger    *zap.Logger
}

// DocumentUpload is a single file plus the records it is attached to.
type DocumentUpload struct {
	Name         string
	Filename     string
	ContentType  string
	Data         []byte
	ClientID     *string
	ModuleID     *string
	ModuleTypeID *string
}

// NewDocumentService constructs the service.
func NewDocumentService(documents repository.DocumentRepository, objects storage.Store, logger *zap.Logger) *DocumentService {
	return &DocumentService{documents: documents, objects: objects, logger: loggerOrNop(logger)}
}

// Upload writes the blob, then the metadata row. A failed row insert
// leaves the blob behind.
func (s *DocumentService) Upload(ctx context.Context, in DocumentUpload) (*domain.Document, error) {
	if len(in.Data) == 0 {
		return nil, apperrors.NewValidationError("empty file", map[string]any{"file": "required"})
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = path.Base(in.Filename)
	}

	owner := "library"
	switch {
	case in.ModuleID != nil:
		owner = "modules/" + *in.ModuleID
	case in.ClientID != nil:
		owner = "clients/" + *in.ClientID
	case in.ModuleTypeID != nil:
		owner = "module-types/" + *in.ModuleTypeID
	}
	objectPath := fmt.Sprintf("%s/%s%s", owner, uuid.NewString(), strings.ToLower(path.Ext(in.Filename)))

	url, err := s.objects.Upload(ctx, storage.BucketDocuments, objectPath, in.Data, in.ContentType)
	if err != nil {
		return nil, apperrors.NewUpstreamError("document upload failed", err)
	}

	doc := &domain.Document{
		Name:         name,
		FileURL:      url,
		StoragePath:  objectPath,
		ContentType:  in.ContentType,
		SizeBytes:    int64(len(in.Data)),
		ClientID:     in.ClientID,
		ModuleID:     in.ModuleID,
		ModuleTypeID: in.ModuleTypeID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, apperrors.MapError(err)
	}
	return doc, nil
}

// List returns documents newest first.
func (s *DocumentService) List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	docs, err := s.documents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return docs, nil
}

// Delete removes the row and then the blob; a blob failure is only logged.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("document", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	if doc.StoragePath != "" {
		if err := s.objects.Delete(ctx, storage.BucketDocuments, doc.StoragePath); err != nil {
			s.logger.Warn("document blob not removed", zap.String("document_id", id), zap.Error(err))
		}
	}
	return nil
}
