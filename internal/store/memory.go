package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/medialint/scene-validator/internal/models"
)

// MemoryStore is an in-memory Store used in tests and for local development
// without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	validations map[uuid.UUID]models.ValidationRecord
	profiles    map[string]models.ValidationProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		validations: map[uuid.UUID]models.ValidationRecord{},
		profiles:    map[string]models.ValidationProfile{},
	}
}

func (m *MemoryStore) CreateValidation(ctx context.Context, rec models.ValidationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validations[rec.ValidationID] = rec
	return nil
}

func (m *MemoryStore) GetValidation(ctx context.Context, id uuid.UUID) (models.ValidationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.validations[id]
	if !ok {
		return models.ValidationRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) CompleteValidation(ctx context.Context, id uuid.UUID, status string, result models.ValidationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.validations[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	r := result
	rec.Result = &r
	m.validations[id] = rec
	return nil
}

func (m *MemoryStore) FailValidation(ctx context.Context, id uuid.UUID, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.validations[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = models.StatusError
	rec.Error = errMsg
	m.validations[id] = rec
	return nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, id string) (models.ValidationProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[id]
	if !ok {
		return models.ValidationProfile{}, ErrNotFound
	}
	return profile, nil
}

func (m *MemoryStore) ListProfiles(ctx context.Context) ([]models.ProfileSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summaries := make([]models.ProfileSummary, 0, len(m.profiles))
	for _, p := range m.profiles {
		summaries = append(summaries, models.ProfileSummary{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (m *MemoryStore) PutProfile(ctx context.Context, profile models.ValidationProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
