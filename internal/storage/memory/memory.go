// Package memory implements an in-memory credential store for local runs and tests.
package memory

import (
	"context"
	"sync"

	"credentials_service/internal/models"
	"credentials_service/internal/storage"
)

// Storage keeps users and credentials behind a single mutex, which makes
// rotation and owner-checked deletion atomic.
type Storage struct {
	mu          sync.Mutex
	users       map[string]models.User
	usersByMail map[string]string
	credentials map[string]string
}

func New() *Storage {
	return &Storage{
		users:       make(map[string]models.User),
		usersByMail: make(map[string]string),
		credentials: make(map[string]string),
	}
}

func (s *Storage) SaveUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return storage.ErrUserExists
	}
	if _, ok := s.usersByMail[user.Email]; ok {
		return storage.ErrUserExists
	}

	s.users[user.ID] = user
	s.usersByMail[user.Email] = user.ID

	return nil
}

func (s *Storage) SaveCredential(_ context.Context, key, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return storage.ErrUserNotFound
	}
	if _, ok := s.credentials[key]; ok {
		return storage.ErrCredentialExists
	}

	s.credentials[key] = ownerID

	return nil
}

func (s *Storage) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByMail[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) Credential(_ context.Context, key string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerID, ok := s.credentials[key]
	if !ok {
		return models.Credential{}, storage.ErrCredentialNotFound
	}

	cred := models.Credential{Key: key, OwnerUserID: ownerID}
	if u, ok := s.users[ownerID]; ok {
		cred.Owner = &u
	}

	return cred, nil
}

func (s *Storage) RotateCredential(_ context.Context, oldKey, newKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerID, ok := s.credentials[oldKey]
	if !ok {
		return false, nil
	}
	if _, taken := s.credentials[newKey]; taken {
		return false, storage.ErrCredentialExists
	}

	delete(s.credentials, oldKey)
	s.credentials[newKey] = ownerID

	return true, nil
}

func (s *Storage) DeleteCredentialOwnedBy(_ context.Context, key, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.credentials[key]
	if !ok || current != ownerID {
		return false, nil
	}

	delete(s.credentials, key)

	return true, nil
}
