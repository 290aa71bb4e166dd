package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/Domenick1991/itinerary/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxSize is used when no limit is configured.
const DefaultMaxSize = 10 << 20

// Document types that may be attached. pkpass files are zip archives.
var allowedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"application/zip",
	"application/json",
	"text/plain",
}

type DocumentUseCase interface {
	Attach(ctx context.Context, ownerID, name string, data []byte) (*domain.Document, error)
	List(ctx context.Context, ownerID string) (List, error)
	Get(ctx context.Context, id string) (*domain.Document, error)
	Content(ctx context.Context, id string) (*domain.Document, []byte, error)
	Remove(ctx context.Context, id string) error
	RemoveOwned(ctx context.Context, ownerID string) error
}

// List is an explicit result for owners without documents.
type List struct {
	Documents    []domain.Document `json:"documents"`
	HasDocuments bool              `json:"has_documents"`
}

type DocumentService struct {
	docs    repository.DocumentRepository
	blobs   storage.BlobStore
	maxSize int64
	logger  logrus.FieldLogger
}

func NewDocumentService(docs repository.DocumentRepository, blobs storage.BlobStore, maxSize int64, logger logrus.FieldLogger) *DocumentService {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &DocumentService{docs: docs, blobs: blobs, maxSize: maxSize, logger: logger}
}

func (s *DocumentService) Attach(ctx context.Context, ownerID, name string, data []byte) (*domain.Document, error) {
	if int64(len(data)) > s.maxSize {
		return nil, domain.AttachError{Reason: domain.AttachTooLarge, Msg: fmt.Sprintf("document exceeds %d bytes", s.maxSize)}
	}
	if len(data) == 0 {
		return nil, domain.AttachError{Reason: domain.AttachUnsupportedType, Msg: "empty document"}
	}
	mt := mimetype.Detect(data)
	if !allowed(mt) {
		return nil, domain.AttachError{Reason: domain.AttachUnsupportedType, Msg: "unsupported type " + mt.String()}
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        normalizeName(name, mt.Extension()),
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}
	doc.StorageKey = storageKey(ownerID, doc.ID)

	if err := s.blobs.Put(ctx, doc.StorageKey, doc.ContentType, data); err != nil {
		return nil, domain.AttachError{Reason: domain.AttachStorage, Err: err}
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.WithError(delErr).WithField("key", doc.StorageKey).Warn("failed to remove orphaned blob")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"document": doc.ID, "owner": ownerID, "type": doc.ContentType}).Info("document attached")
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID string) (List, error) {
	docs, err := s.docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return List{}, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return List{Documents: docs, HasDocuments: len(docs) > 0}, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *DocumentService) Content(ctx context.Context, id string) (*domain.Document, []byte, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

func (s *DocumentService) Remove(ctx context.Context, id string) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil && !domain.IsNotFound(err) {
		return err
	}
	return s.docs.Delete(ctx, id)
}

func (s *DocumentService) RemoveOwned(ctx context.Context, ownerID string) error {
	docs, err := s.docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.Remove(ctx, doc.ID); err != nil && !domain.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func allowed(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, t := range allowedTypes {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

// normalizeName strips directories and falls back to a generic name.
func normalizeName(name, ext string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "document" + ext
	}
	return name
}

func storageKey(ownerID, docID string) string {
	return "documents/" + ownerID + "/" + docID
}

var _ DocumentUseCase = (*DocumentService)(nil)
