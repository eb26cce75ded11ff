package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
}

// Credential is a long-lived API key / refresh credential owned by a user.
type Credential struct {
	Key         string
	OwnerUserID string
	// Owner is populated when the store joins the credential with its user.
	Owner *User
}

// UserInfo is the sanitized projection of a User that may leave the auth boundary.
type UserInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

const (
	EventCredentialRotated = "credential.rotated"
	EventCredentialRevoked = "credential.revoked"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
