package services

import (
	"context"
	"sync"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type SettingsService struct {
	store docstore.Store
	repo  repositories.SettingsRepository
	bus   *events.Bus

	mu   sync.Mutex
	last *models.AppSettings
}

func NewSettingsService(store docstore.Store, repo repositories.SettingsRepository, bus *events.Bus) *SettingsService {
	return &SettingsService{store: store, repo: repo, bus: bus}
}

// GetAppSettings never fails: a missing or unreadable document yields the
// defaults. The boolean reports a degraded read.
func (s *SettingsService) GetAppSettings(ctx context.Context) (*models.AppSettings, bool) {
	res := s.repo.GetByID(ctx, models.SettingsID)
	if !res.Found() {
		return models.DefaultAppSettings(), res.Degraded()
	}
	return withDefaults(res.Item), false
}

func (s *SettingsService) GetAppLogo(ctx context.Context) *string {
	settings, _ := s.GetAppSettings(ctx)
	if settings.Logo == nil || *settings.Logo == "" {
		return nil
	}
	return settings.Logo
}

func (s *SettingsService) UpdateAppSettings(ctx context.Context, name, currency string) (*models.AppSettings, error) {
	s.Prime(ctx)
	updated, err := s.upsert(ctx, func(cur *models.AppSettings) {
		cur.Name = name
		cur.Currency = currency
	})
	if err != nil {
		return nil, storeError("Failed to update settings", err)
	}
	s.observe(updated)
	return updated, nil
}

func (s *SettingsService) UpdateAppLogo(ctx context.Context, logo string) (*models.AppSettings, error) {
	s.Prime(ctx)
	updated, err := s.upsert(ctx, func(cur *models.AppSettings) {
		cur.Logo = utils.Ptr(logo)
	})
	if err != nil {
		return nil, storeError("Failed to update logo", err)
	}
	s.observe(updated)
	return updated, nil
}

// upsert creates the singleton from defaults when it does not exist yet.
func (s *SettingsService) upsert(ctx context.Context, mutate func(*models.AppSettings)) (*models.AppSettings, error) {
	var out *models.AppSettings
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		repo := s.repo.In(tx)
		cur, err := repo.Find(ctx, models.SettingsID)
		if err != nil {
			return err
		}
		if cur == nil {
			cur = models.DefaultAppSettings()
		}
		cur = withDefaults(cur)
		mutate(cur)
		if err := repo.Set(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// Watch follows the settings document and publishes change signals for
// writes made by other instances. Call the returned function to stop.
// The stored state is read before subscribing, so a write that lands before
// the first delivery is still compared against it.
func (s *SettingsService) Watch(ctx context.Context) (func(), error) {
	s.Prime(ctx)
	sub, err := s.repo.ListenByID(ctx, models.SettingsID, func(cur *models.AppSettings) {
		if cur == nil {
			cur = models.DefaultAppSettings()
		}
		s.observe(withDefaults(cur))
	})
	if err != nil {
		return nil, err
	}
	return sub.Close, nil
}

// observe records snapshot and publishes the topics whose fields differ
// from the previous one. Without a previous one it only records.
func (s *SettingsService) observe(snapshot *models.AppSettings) {
	s.mu.Lock()
	prev := s.last
	cp := *snapshot
	s.last = &cp
	s.mu.Unlock()

	if prev == nil {
		return
	}
	if prev.Name != snapshot.Name || prev.Currency != snapshot.Currency {
		s.bus.Publish(events.TopicSettingsChanged)
	}
	if utils.Val(prev.Logo) != utils.Val(snapshot.Logo) {
		s.bus.Publish(events.TopicLogoChanged)
	}
}

// Prime seeds the observed state so that the first local write or listener
// delivery publishes.
func (s *SettingsService) Prime(ctx context.Context) {
	s.mu.Lock()
	primed := s.last != nil
	s.mu.Unlock()
	if primed {
		return
	}
	settings, _ := s.GetAppSettings(ctx)
	s.mu.Lock()
	if s.last == nil {
		s.last = settings
	}
	s.mu.Unlock()
}

func withDefaults(in *models.AppSettings) *models.AppSettings {
	out := *in
	out.ID = models.SettingsID
	if out.Name == "" {
		out.Name = models.DefaultAppName
	}
	if out.Currency == "" {
		out.Currency = models.DefaultCurrency
	}
	return &out
}
