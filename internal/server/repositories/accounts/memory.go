package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. All indexes are updated
// under one lock, so a name check and the insert that follows are atomic.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.Account
	byName map[string]string
	byKey  map[string]string
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*models.Account),
		byName: make(map[string]string),
		byKey:  make(map[string]string),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[account.Name]; taken {
		return nil, common.ErrorConflict
	}
	if account.APIKeyHash != "" {
		if _, taken := r.byKey[account.APIKeyHash]; taken {
			return nil, common.ErrorConflict
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if _, taken := r.byID[account.ID]; taken {
		return nil, common.ErrorConflict
	}
	if account.Fields == nil {
		account.Fields = models.Fields{}
	}
	account.CreatedAt = r.now().UTC()

	stored := cloneAccount(account)
	r.byID[stored.ID] = stored
	r.byName[stored.Name] = stored.ID
	if stored.APIKeyHash != "" {
		r.byKey[stored.APIKeyHash] = stored.ID
	}

	return account, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(id)
}

func (r *MemoryRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[hash]
	if !ok || hash == "" {
		return nil, common.ErrorNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, cloneAccount(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *MemoryRepository) ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if fields == nil {
		fields = models.Fields{}
	}
	a.Fields = fields.Clone()
	return cloneAccount(a), nil
}

func (r *MemoryRepository) UpdateAPIKeyHash(ctx context.Context, id string, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if owner, taken := r.byKey[hash]; taken && owner != id {
		return common.ErrorConflict
	}
	if a.APIKeyHash != "" {
		delete(r.byKey, a.APIKeyHash)
	}
	a.APIKeyHash = hash
	if hash != "" {
		r.byKey[hash] = id
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	delete(r.byName, a.Name)
	if a.APIKeyHash != "" {
		delete(r.byKey, a.APIKeyHash)
	}
	return nil
}

func (r *MemoryRepository) lookup(id string) (*models.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(a), nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	c.Fields = a.Fields.Clone()
	c.APIKey = ""
	return &c
}
