// Package common contains shared constants, sentinel errors and small
// helpers used across the service layers.
package common

const (
	// AuthorizationHeaderName carries the session token on protected requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the expected authorization scheme, matched case-insensitively.
	BearerScheme = "bearer"

	// AdminRole is the value of the "role" field that grants administrative access.
	AdminRole = "admin"

	// RoleFieldName is the account field consulted for permission checks.
	RoleFieldName = "role"
)
