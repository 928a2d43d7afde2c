// Package services contains the account service business logic: credential
// verification, account management and session token issuance.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/dbx"
	"github.com/dmitrijs2005/authapi/internal/server/auth"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
)

const renewalTokenBytes = 32

// TokenPair bundles a short-lived session token and a single-use renewal token.
type TokenPair struct {
	JWT          string `json:"jwt"`
	RenewalToken string `json:"renewalToken"`
}

// SessionService issues token pairs for verified identities and exchanges
// renewal tokens for fresh pairs.
type SessionService struct {
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	renewalTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		renewalTokenValidityDuration: cfg.RenewalTokenValidityDuration,
		now:                          time.Now,
	}
}

// Issue mints a session token for identity and stores a new renewal token.
func (s *SessionService) Issue(ctx context.Context, identity models.Identity) (*TokenPair, error) {
	return s.generateTokenPair(ctx, identity, s.repomanager.DB())
}

// Renew redeems renewalToken. The token is consumed and the replacement pair
// stored in one transaction where the backend has them. Unknown or already
// used tokens, and tokens whose account is gone, yield common.ErrorUnauthorized;
// expired ones common.ErrRenewalTokenExpired.
func (s *SessionService) Renew(ctx context.Context, renewalToken string) (*TokenPair, error) {
	if renewalToken == "" {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RenewalTokens(tx).Consume(ctx, renewalToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error consuming renewal token: %w", err)
		}
		if token.Expired(s.now()) {
			return common.ErrRenewalTokenExpired
		}

		account, err := s.repomanager.Accounts(tx).GetByID(ctx, token.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error loading account: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, models.IdentityOf(account), tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// --- helpers below ---

func (s *SessionService) generateTokenPair(ctx context.Context, identity models.Identity, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(identity, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error signing session token: %w", err)
	}
	renewal, err := common.MakeRandHexString(renewalTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating renewal token: %w", err)
	}
	if err := s.repomanager.RenewalTokens(tx).Create(ctx, identity.AccountID, renewal, s.renewalTokenValidityDuration); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error storing renewal token: %w", err)
	}
	return &TokenPair{JWT: access, RenewalToken: renewal}, nil
}
