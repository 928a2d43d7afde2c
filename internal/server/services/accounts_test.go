package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountService_Create(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewAccountService(m, testConfig())

	fields := models.Fields{{Name: "role", Values: []string{"user"}}}
	acc := mustCreate(t, svc, "bob", "pw", fields)

	_, err := uuid.Parse(acc.ID)
	assert.NoError(t, err)
	assert.Len(t, acc.APIKey, 64)
	assert.Equal(t, common.SHA256Hex(acc.APIKey), acc.APIKeyHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte("pw")))
	assert.Equal(t, fields, acc.Fields)

	stored, err := m.acc.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.APIKey, "plain key must not be stored")
}

func TestAccountService_Create_Validation(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateAccountInput{Name: "  "})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Create(ctx, CreateAccountInput{Name: "x", Fields: models.Fields{{Name: "a"}, {Name: "a"}}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Create(ctx, CreateAccountInput{Name: "x", Password: strings.Repeat("p", 73)})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "password", ve.Field)
}

func TestAccountService_Create_WithoutPassword(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())

	acc := mustCreate(t, svc, "svc", "", nil)
	assert.Empty(t, acc.PasswordHash)
	assert.Equal(t, models.Fields{}, acc.Fields)
}

func TestAccountService_Create_DuplicateIsConflict(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())

	mustCreate(t, svc, "bob", "pw", nil)
	_, err := svc.Create(context.Background(), CreateAccountInput{Name: "bob", Fields: models.Fields{{Name: "x", Values: []string{"y"}}}})
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestAccountService_Create_ConcurrentSameName(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateAccountInput{Name: "dup", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, common.ErrorConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestAccountService_Get(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())
	ctx := context.Background()

	acc := mustCreate(t, svc, "bob", "pw", nil)

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Name)

	got, err = svc.Get(ctx, strings.ToUpper(acc.ID))
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	for _, id := range []string{"", "not-a-uuid", uuid.NewString(), "{" + acc.ID + "}"} {
		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, "id %q", id)
	}
}

func TestAccountService_List(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewAccountService(m, testConfig())
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	mustCreate(t, svc, "a", "", nil)
	mustCreate(t, svc, "b", "", nil)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	m.acc.listErr = errDB
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, errDB)
}

func TestAccountService_ReplaceFields(t *testing.T) {
	svc := NewAccountService(newFakeRepoManager(), testConfig())
	ctx := context.Background()

	acc := mustCreate(t, svc, "bob", "", models.Fields{{Name: "old", Values: []string{"1"}}})

	updated, err := svc.ReplaceFields(ctx, acc.ID, models.Fields{{Name: "new", Values: []string{"2"}}})
	require.NoError(t, err)
	assert.Equal(t, models.Fields{{Name: "new", Values: []string{"2"}}}, updated.Fields)

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	_, hasOld := got.Fields.Get("old")
	assert.False(t, hasOld)

	_, err = svc.ReplaceFields(ctx, acc.ID, models.Fields{{Name: "a"}, {Name: "a"}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.ReplaceFields(ctx, uuid.NewString(), nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.ReplaceFields(ctx, "nope", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccountService_Delete(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewAccountService(m, testConfig())
	ctx := context.Background()

	acc := mustCreate(t, svc, "bob", "", nil)
	require.NoError(t, m.renewal.Create(ctx, acc.ID, "tok", time.Hour))

	require.NoError(t, svc.Delete(ctx, acc.ID))
	assert.Equal(t, 1, m.txCalls)

	_, err := svc.Get(ctx, acc.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = m.renewal.Consume(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound, "renewal tokens go with the account")

	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), common.ErrorNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "bad-id"), common.ErrorNotFound)

	m.acc.deleteErr = errDB
	assert.ErrorIs(t, svc.Delete(ctx, uuid.NewString()), errDB)
}

func TestAccountService_BootstrapAdminProtected(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewAccountService(m, testConfig())
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx)
	require.NoError(t, err)

	_, err = svc.ReplaceFields(ctx, admin.ID, models.Fields{{Name: "team", Values: []string{"ops"}}})
	assert.ErrorIs(t, err, common.ErrorValidation)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fields", verr.Field)

	kept := models.Fields{{Name: "role", Values: []string{"ops", "admin"}}}
	updated, err := svc.ReplaceFields(ctx, admin.ID, kept)
	require.NoError(t, err)
	assert.Equal(t, kept, updated.Fields)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), common.ErrorForbidden)
	got, err := svc.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, got.Fields.Has("role", "admin"))

	m.acc.getByIDErr = errDB
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), errDB)
	_, err = svc.ReplaceFields(ctx, admin.ID, kept)
	assert.ErrorIs(t, err, errDB)
}

func TestAccountService_EnsureAdmin_CreatesOnce(t *testing.T) {
	m := newFakeRepoManager()
	cfg := testConfig()
	svc := NewAccountService(m, cfg)
	ctx := context.Background()

	first, err := svc.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", first.Name)
	assert.True(t, first.Fields.Has("role", "admin"))
	assert.Equal(t, common.SHA256Hex(testAdminKey), first.APIKeyHash)

	second, err := svc.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAccountService_EnsureAdmin_ReappliesKeyAndRole(t *testing.T) {
	m := newFakeRepoManager()
	cfg := testConfig()
	ctx := context.Background()

	existing, err := m.acc.Create(ctx, &models.Account{
		Name:       "admin",
		APIKeyHash: "stale",
		Fields:     models.Fields{{Name: "role", Values: []string{"user"}}, {Name: "team", Values: []string{"ops"}}},
	})
	require.NoError(t, err)

	got, err := NewAccountService(m, cfg).EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, common.SHA256Hex(testAdminKey), got.APIKeyHash)
	assert.Equal(t, models.Fields{
		{Name: "role", Values: []string{"user", "admin"}},
		{Name: "team", Values: []string{"ops"}},
	}, got.Fields)

	byKey, err := m.acc.GetByAPIKeyHash(ctx, common.SHA256Hex(testAdminKey))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byKey.ID)
}

func TestAccountService_EnsureAdmin_LookupError(t *testing.T) {
	m := newFakeRepoManager()
	m.acc.getByNameErr = errDB

	_, err := NewAccountService(m, testConfig()).EnsureAdmin(context.Background())
	assert.ErrorIs(t, err, errDB)
}

func TestWithAdminRole(t *testing.T) {
	assert.Equal(t,
		models.Fields{{Name: "role", Values: []string{"admin"}}},
		withAdminRole(nil))

	in := models.Fields{{Name: "role", Values: []string{"user"}}}
	out := withAdminRole(in)
	assert.Equal(t, []string{"user"}, in[0].Values, "input is not modified")
	assert.Equal(t, []string{"user", "admin"}, out[0].Values)
}
