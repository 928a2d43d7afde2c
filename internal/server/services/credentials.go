package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier turns presented credentials into a verified identity.
// Every rejection is the same common.ErrorUnauthorized.
type CredentialVerifier struct {
	repomanager repomanager.RepositoryManager
	adminAPIKey []byte
	adminName   string

	// dummyHash stands in for the stored hash when the name is unknown.
	dummyHash []byte
}

func NewCredentialVerifier(m repomanager.RepositoryManager, cfg *config.Config) (*CredentialVerifier, error) {
	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error preparing password verifier: %w", err)
	}
	return &CredentialVerifier{
		repomanager: m,
		adminAPIKey: []byte(cfg.AdminAPIKey),
		adminName:   cfg.AdminAccountName,
		dummyHash:   dummy,
	}, nil
}

// VerifyAPIKey accepts the configured administrator key, resolving to the
// bootstrap admin account, or any account's own key.
func (v *CredentialVerifier) VerifyAPIKey(ctx context.Context, presented string) (models.Identity, error) {
	if presented == "" {
		return models.Identity{}, common.ErrorUnauthorized
	}
	repo := v.repomanager.Accounts(v.repomanager.DB())

	var (
		account *models.Account
		err     error
	)
	if len(v.adminAPIKey) > 0 && subtle.ConstantTimeCompare([]byte(presented), v.adminAPIKey) == 1 {
		account, err = repo.GetByName(ctx, v.adminName)
	} else {
		account, err = repo.GetByAPIKeyHash(ctx, common.SHA256Hex(presented))
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Identity{}, common.ErrorUnauthorized
		}
		return models.Identity{}, fmt.Errorf("error looking up account: %w", err)
	}

	return models.IdentityOf(account), nil
}

// VerifyPassword checks name and password. Unknown names, missing or wrong
// passwords and empty input are indistinguishable to the caller.
func (v *CredentialVerifier) VerifyPassword(ctx context.Context, name, password string) (models.Identity, error) {
	if name == "" || password == "" {
		return models.Identity{}, common.ErrorUnauthorized
	}

	account, err := v.repomanager.Accounts(v.repomanager.DB()).GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return models.Identity{}, fmt.Errorf("error looking up account: %w", err)
		}
		account = nil
	}

	hash := v.dummyHash
	if account != nil && len(account.PasswordHash) > 0 {
		hash = account.PasswordHash
	}
	match := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if account == nil || len(account.PasswordHash) == 0 || !match {
		return models.Identity{}, common.ErrorUnauthorized
	}
	return models.IdentityOf(account), nil
}
