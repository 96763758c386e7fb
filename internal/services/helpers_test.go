package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"tiernow/internal/config"
)

// sequenceIDs hands out ids in order, then repeats the last one.
type sequenceIDs struct {
	mu  sync.Mutex
	ids []string
	i   int
}

func (s *sequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.ids[s.i]
	if s.i < len(s.ids)-1 {
		s.i++
	}
	return id
}

// fakeCreator records every Create call and fails with err when set.
type fakeCreator struct {
	mu    sync.Mutex
	calls []CreateTierlistRequest
	err   error
}

func (f *fakeCreator) Create(ctx context.Context, uuid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, CreateTierlistRequest{UUID: uuid, Name: name})
	return f.err
}

func testConfig(apiURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.API.BaseURL = apiURL
	cfg.Web.PublicURL = "https://tiernow.example"
	return cfg
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
