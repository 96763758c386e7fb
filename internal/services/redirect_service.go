package services

import (
	"context"

	"go.uber.org/zap"
	"tiernow/internal/config"
	"tiernow/internal/domain/entities"
	"tiernow/pkg/utils"
)

// NewTierlistResult is where a visitor should be sent after a successful
// creation.
type NewTierlistResult struct {
	UUID     string
	Location string
}

// RedirectService mints a tierlist for every visit to the site root:
//  1. Draw a fresh UUID
//  2. Ask the API to create a tierlist under that UUID
//  3. Build {public URL}/{uuid} for the redirect
//
// The creation outcome decides the result. If the API did not confirm the
// tierlist, no Location is produced, so the visitor is never sent to a page
// for a tierlist that does not exist.
type RedirectService struct {
	creator   TierlistCreator
	ids       utils.IDGenerator
	publicURL string
	logger    *zap.Logger
}

func NewRedirectService(creator TierlistCreator, ids utils.IDGenerator, cfg *config.Config, logger *zap.Logger) *RedirectService {
	return &RedirectService{
		creator:   creator,
		ids:       ids,
		publicURL: config.TrimBase(cfg.Web.PublicURL),
		logger:    logger,
	}
}

// NewTierlist creates a tierlist named entities.DefaultTierlistName and
// returns its page URL. The UUID in Location is the one sent to the API.
func (s *RedirectService) NewTierlist(ctx context.Context) (*NewTierlistResult, error) {
	id := s.ids.NewID()

	if err := s.creator.Create(ctx, id, entities.DefaultTierlistName); err != nil {
		s.logger.Error("tierlist creation failed", zap.String("uuid", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("tierlist created", zap.String("uuid", id))
	return &NewTierlistResult{
		UUID:     id,
		Location: s.publicURL + "/" + id,
	}, nil
}
