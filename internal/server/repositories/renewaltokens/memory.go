package renewaltokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// MemoryRepository keeps renewal tokens in process memory. Expired tokens are
// dropped on the next write.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RenewalToken
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tokens: make(map[string]models.RenewalToken),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, accountID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if _, exists := r.tokens[token]; exists {
		return common.ErrorConflict
	}
	r.tokens[token] = models.RenewalToken{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	}
	return nil
}

func (r *MemoryRepository) Consume(ctx context.Context, token string) (*models.RenewalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.tokens, token)
	return &t, nil
}

func (r *MemoryRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.AccountID == accountID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *MemoryRepository) sweepLocked(now time.Time) {
	for k, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, k)
		}
	}
}
