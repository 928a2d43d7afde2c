// Package models defines the account-service domain types shared by the
// repositories, services and HTTP layer.
package models

import (
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
)

type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the account password; empty when the
	// account authenticates with its API key only.
	PasswordHash []byte `json:"-"`

	// APIKeyHash is the hex SHA-256 digest of the API key.
	APIKeyHash string `json:"-"`

	// APIKey holds the plain key only on the create response.
	APIKey string `json:"apiKey,omitempty"`

	Fields    Fields    `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the authenticated principal of a request, either resolved from
// credentials or decoded from a session token.
type Identity struct {
	AccountID string
	Name      string
	Fields    Fields
}

// IdentityOf returns the identity of a stored account.
func IdentityOf(a *Account) Identity {
	return Identity{AccountID: a.ID, Name: a.Name, Fields: a.Fields.Clone()}
}

// HasRole reports whether the identity's role field contains role.
func (i Identity) HasRole(role string) bool {
	return i.Fields.Has(common.RoleFieldName, role)
}
