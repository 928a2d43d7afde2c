package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/dbx"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyBytes = 32

// CreateAccountInput is what an administrator supplies for a new account.
type CreateAccountInput struct {
	Name     string
	Password string
	Fields   models.Fields
}

// AccountService manages accounts on behalf of administrators and keeps the
// bootstrap admin account in line with configuration.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	adminName   string
	adminAPIKey string
}

func NewAccountService(m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		repomanager: m,
		bcryptCost:  cfg.BcryptCost,
		adminName:   cfg.AdminAccountName,
		adminAPIKey: cfg.AdminAPIKey,
	}
}

// Create stores a new account with a generated id and API key. The plain key
// is set on the returned account only.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, common.NewValidationError("name", "must not be empty")
	}
	if err := in.Fields.Validate(); err != nil {
		return nil, err
	}

	var passwordHash []byte
	if in.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return nil, common.NewValidationError("password", "must be at most 72 bytes")
			}
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		passwordHash = h
	}

	apiKey, err := common.MakeRandHexString(apiKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating api key: %w", err)
	}

	fields := in.Fields.Clone()
	if fields == nil {
		fields = models.Fields{}
	}

	account, err := s.accounts().Create(ctx, &models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		PasswordHash: passwordHash,
		APIKeyHash:   common.SHA256Hex(apiKey),
		Fields:       fields,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	account.APIKey = apiKey
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	account, err := s.accounts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	list, err := s.accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	if list == nil {
		list = []*models.Account{}
	}
	return list, nil
}

// ReplaceFields overwrites all fields of the account. The bootstrap admin
// account must keep the admin role.
func (s *AccountService) ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	var account *models.Account
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		isAdmin, err := s.isBootstrapAdmin(ctx, repo, id)
		if err != nil {
			return err
		}
		if isAdmin && !fields.Has(common.RoleFieldName, common.AdminRole) {
			return common.NewValidationError("fields", "bootstrap admin must keep role admin")
		}
		account, err = repo.ReplaceFields(ctx, id, fields.Clone())
		if err != nil {
			return fmt.Errorf("error replacing fields: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes the account together with its renewal tokens. The bootstrap
// admin account cannot be deleted.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	id, ok := parseID(id)
	if !ok {
		return common.ErrorNotFound
	}
	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		isAdmin, err := s.isBootstrapAdmin(ctx, s.repomanager.Accounts(tx), id)
		if err != nil {
			return err
		}
		if isAdmin {
			return common.ErrorForbidden
		}
		if err := s.repomanager.Accounts(tx).Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting account: %w", err)
		}
		if err := s.repomanager.RenewalTokens(tx).DeleteByAccount(ctx, id); err != nil {
			return fmt.Errorf("error deleting renewal tokens: %w", err)
		}
		return nil
	})
}

// EnsureAdmin makes the bootstrap admin account exist with the configured
// API key and the admin role. It is safe to call on every start.
func (s *AccountService) EnsureAdmin(ctx context.Context) (*models.Account, error) {
	repo := s.accounts()
	keyHash := common.SHA256Hex(s.adminAPIKey)

	account, err := repo.GetByName(ctx, s.adminName)
	if errors.Is(err, common.ErrorNotFound) {
		account, err = repo.Create(ctx, &models.Account{
			ID:         uuid.NewString(),
			Name:       s.adminName,
			APIKeyHash: keyHash,
			Fields:     models.Fields{{Name: common.RoleFieldName, Values: []string{common.AdminRole}}},
		})
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("error creating admin account: %w", err)
		}
		// Another instance created it first.
		account, err = repo.GetByName(ctx, s.adminName)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading admin account: %w", err)
	}

	if account.APIKeyHash != keyHash {
		if err := repo.UpdateAPIKeyHash(ctx, account.ID, keyHash); err != nil {
			return nil, fmt.Errorf("error updating admin api key: %w", err)
		}
		account.APIKeyHash = keyHash
	}

	if !account.Fields.Has(common.RoleFieldName, common.AdminRole) {
		account, err = repo.ReplaceFields(ctx, account.ID, withAdminRole(account.Fields))
		if err != nil {
			return nil, fmt.Errorf("error granting admin role: %w", err)
		}
	}

	return account, nil
}

// isBootstrapAdmin reports whether id names the configured admin account.
// A missing account is not an error here; the caller's own lookup reports it.
func (s *AccountService) isBootstrapAdmin(ctx context.Context, repo accounts.Repository, id string) (bool, error) {
	account, err := repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error loading account: %w", err)
	}
	return account.Name == s.adminName, nil
}

func (s *AccountService) accounts() accounts.Repository {
	return s.repomanager.Accounts(s.repomanager.DB())
}

func withAdminRole(fields models.Fields) models.Fields {
	out := fields.Clone()
	for i := range out {
		if out[i].Name == common.RoleFieldName {
			out[i].Values = append(out[i].Values, common.AdminRole)
			return out
		}
	}
	return append(out, models.Field{Name: common.RoleFieldName, Values: []string{common.AdminRole}})
}

// parseID returns the canonical form of a UUID account id. Anything else can
// never name an account.
func parseID(id string) (string, bool) {
	if len(id) != 36 {
		return "", false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
