package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"tiernow/internal/domain/entities"
	"tiernow/internal/repository"
	"tiernow/internal/storage"
	"tiernow/pkg/utils"
)

// MaxUploadBytes caps one image upload at 10 MiB.
const MaxUploadBytes = 10 << 20

var (
	ErrInvalidUUID      = errors.New("invalid tierlist uuid")
	ErrTierlistNotFound = repository.ErrTierlistNotFound
	ErrTierlistExists   = repository.ErrTierlistExists
	ErrTierNotFound     = repository.ErrTierNotFound
	ErrImageNotFound    = repository.ErrImageNotFound
	ErrTierMismatch     = errors.New("tier belongs to another tierlist")
	ErrMissingExtension = errors.New("file name has no extension")
	ErrNotAnImage       = errors.New("uploaded file is not an image")
)

// fileKeyPattern matches the keys UploadImage generates: a canonical UUID and
// a short alphanumeric extension. Anything else never names a stored image.
var fileKeyPattern = regexp.MustCompile(`^([0-9a-f-]{36})\.([a-z0-9]{1,10})$`)

// TierlistService owns tierlists on the API side. Tierlist and image metadata
// go to the repository and image bytes go to the object store.
type TierlistService struct {
	repo   repository.TierlistRepository
	store  storage.ObjectStore
	ids    utils.IDGenerator
	logger *zap.Logger
}

func NewTierlistService(
	repo repository.TierlistRepository,
	store storage.ObjectStore,
	ids utils.IDGenerator,
	logger *zap.Logger,
) *TierlistService {
	return &TierlistService{
		repo:   repo,
		store:  store,
		ids:    ids,
		logger: logger,
	}
}

// CreateTierlist stores a tierlist with the default tiers. uuid is honored
// when given, because the caller may already have redirected a visitor to a
// page keyed by it. An empty uuid gets a generated one.
func (s *TierlistService) CreateTierlist(ctx context.Context, uuid, name string) (*entities.Tierlist, error) {
	if uuid == "" {
		uuid = s.ids.NewID()
	} else if err := utils.ValidateID(uuid); err != nil {
		return nil, ErrInvalidUUID
	}

	tl := entities.NewTierlist(uuid, strings.TrimSpace(name))
	if err := s.repo.Create(ctx, tl); err != nil {
		return nil, err
	}

	s.logger.Info("created tierlist", zap.String("uuid", tl.UUID), zap.String("name", tl.Name))
	return tl, nil
}

// GetTierlist returns the tierlist with its images arranged into tiers.
func (s *TierlistService) GetTierlist(ctx context.Context, uuid string) (*entities.Tierlist, error) {
	if err := utils.ValidateID(uuid); err != nil {
		return nil, ErrTierlistNotFound
	}

	tl, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListImages(ctx, uuid)
	if err != nil {
		return nil, err
	}
	tl.Arrange(images)
	return tl, nil
}

// UploadRequest carries one multipart file.
type UploadRequest struct {
	TierlistUUID string
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadImage stores the bytes under images/<fresh uuid>.<ext> and records
// the metadata as unassigned. The tierlist is checked before anything is
// written, and the object is removed again if its metadata cannot be saved.
func (s *TierlistService) UploadImage(ctx context.Context, req UploadRequest) (*entities.Image, error) {
	if err := utils.ValidateID(req.TierlistUUID); err != nil {
		return nil, ErrTierlistNotFound
	}
	if _, err := s.repo.GetByUUID(ctx, req.TierlistUUID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if ext == "" {
		return nil, ErrMissingExtension
	}

	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension("." + ext)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	img := &entities.Image{
		TierlistUUID: req.TierlistUUID,
		FileKey:      fmt.Sprintf("%s.%s", s.ids.NewID(), ext),
		ContentType:  contentType,
	}
	if !fileKeyPattern.MatchString(img.FileKey) {
		return nil, ErrMissingExtension
	}

	if err := s.store.Put(ctx, img.ObjectKey(), req.Body, req.Size, contentType); err != nil {
		s.logger.Error("failed to upload image", zap.String("key", img.ObjectKey()), zap.Error(err))
		return nil, err
	}
	if err := s.repo.CreateImage(ctx, img); err != nil {
		s.logger.Error("failed to save image metadata", zap.String("key", img.ObjectKey()), zap.Error(err))
		// ctx may already be cancelled; the cleanup should still run.
		if delErr := s.store.Delete(context.WithoutCancel(ctx), img.ObjectKey()); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("key", img.ObjectKey()), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("uploaded image", zap.String("tierlist", req.TierlistUUID), zap.String("key", img.ObjectKey()))
	return img, nil
}

// OpenImage streams a stored image by file key. Malformed keys are reported as
// missing.
func (s *TierlistService) OpenImage(ctx context.Context, fileKey string) (io.ReadCloser, storage.ObjectInfo, error) {
	m := fileKeyPattern.FindStringSubmatch(fileKey)
	if m == nil || utils.ValidateID(m[1]) != nil {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return s.store.Get(ctx, entities.ImageObjectKey(fileKey))
}

// MoveImage puts an image into a tier, or back into the unassigned pool when
// tierID is nil. Both the image and the tier must belong to tierlistUUID.
func (s *TierlistService) MoveImage(ctx context.Context, tierlistUUID string, imageID int64, tierID *int64) (*entities.Image, error) {
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.TierlistUUID != tierlistUUID {
		return nil, ErrImageNotFound
	}

	if tierID != nil {
		tier, err := s.repo.GetTier(ctx, *tierID)
		if err != nil {
			return nil, err
		}
		if tier.TierlistUUID != tierlistUUID {
			return nil, ErrTierMismatch
		}
		s.logger.Info("moved image to tier", zap.Int64("image", imageID), zap.Int64("tier", *tierID))
	} else {
		s.logger.Info("moved image to unassigned", zap.Int64("image", imageID))
	}

	return s.repo.SetImageTier(ctx, imageID, tierID)
}
