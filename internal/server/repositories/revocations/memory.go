package revocations

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

// MemoryRepository is a process-local blacklist for development and tests.
// It is lost on restart and not shared between replicas.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.RevokedToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.RevokedToken)}
}

func (r *MemoryRepository) Insert(_ context.Context, token string, blacklistedAt, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[token]; ok {
		return false, nil
	}
	r.records[token] = models.RevokedToken{Token: token, BlacklistedAt: blacklistedAt, ExpiresAt: expiresAt}
	return true, nil
}

func (r *MemoryRepository) Exists(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[token]
	return ok, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, rec := range r.records {
		if rec.ExpiresAt.Before(now) {
			delete(r.records, token)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Stats(_ context.Context, now time.Time) (models.RevocationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := models.RevocationStats{Total: int64(len(r.records))}
	for _, rec := range r.records {
		if rec.ExpiresAt.Before(now) {
			s.Expired++
		}
	}
	s.Active = s.Total - s.Expired
	return s, nil
}
