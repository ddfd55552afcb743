package mockapi

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrEmailTaken = errors.New("email already registered")

type Tenant struct {
	ID      string
	Name    string
	OrgType string
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	TenantID     string
	Role         string
}

// Store keeps tenants and users in memory. Emails are stored lowercased.
type Store struct {
	mu      sync.Mutex
	tenants map[string]Tenant
	users   map[string]User
	byEmail map[string]string
}

func NewStore() *Store {
	return &Store{
		tenants: make(map[string]Tenant),
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// CreateTenant registers a tenant and its admin user in one step.
func (s *Store) CreateTenant(name string, orgType string, email string, passwordHash []byte) (Tenant, User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	if _, ok := s.byEmail[email]; ok {
		return Tenant{}, User{}, ErrEmailTaken
	}

	tenant := Tenant{ID: uuid.NewString(), Name: name, OrgType: orgType}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		TenantID:     tenant.ID,
		Role:         "admin",
	}
	s.tenants[tenant.ID] = tenant
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return tenant, user, nil
}

func (s *Store) UserByEmail(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, false
	}
	user, ok := s.users[id]
	return user, ok
}

func (s *Store) User(id string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

func (s *Store) Tenant(id string) (Tenant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[id]
	return tenant, ok
}
