package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/carematch360/portal/pkg/idx"
)

var ErrUserNotFound = errors.New("user not found")

// User is an identity account.
type User struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
	Verified     bool
	Active       bool
	CreatedAt    time.Time

	// TwoFactorSecret is set by setup and only enforced once
	// TwoFactorEnabled is true.
	TwoFactorSecret  string
	TwoFactorEnabled bool
}

// UserView is the public shape of a user returned by the API.
type UserView struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	Verified         bool   `json:"isVerified"`
	Active           bool   `json:"isActive"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

func (u User) View() UserView {
	return UserView{
		ID:               u.ID,
		Email:            u.Email,
		Role:             u.Role,
		Verified:         u.Verified,
		Active:           u.Active,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// SeedUser describes an account created at startup.
type SeedUser struct {
	Email    string
	Role     string
	Verified bool
}

// DefaultSeed has one verified account per role plus an unverified one.
var DefaultSeed = []SeedUser{
	{Email: "patient@test.com", Role: "PATIENT", Verified: true},
	{Email: "relative@test.com", Role: "RELATIVE", Verified: true},
	{Email: "res@test.com", Role: "RESIDENTIAL_PROVIDER", Verified: true},
	{Email: "amb@test.com", Role: "AMBULATORY_PROVIDER", Verified: true},
	{Email: "admin@test.com", Role: "ADMIN", Verified: true},
	{Email: "super@test.com", Role: "SUPER_ADMIN", Verified: true},
	{Email: "unverified@test.com", Role: "PATIENT", Verified: false},
}

// Directory is the in-memory user table. It is safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
}

func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

// Seed creates every account in seed with the same password.
func (d *Directory) Seed(hasher *cryptox.PasswordHasher, password string, seed []SeedUser) error {
	for _, s := range seed {
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", s.Email, err)
		}
		d.Add(User{
			ID:           idx.New().String(),
			Email:        s.Email,
			Role:         s.Role,
			PasswordHash: hash,
			Verified:     s.Verified,
			Active:       true,
			CreatedAt:    time.Now().UTC(),
		})
	}
	return nil
}

// Add inserts or replaces u.
func (d *Directory) Add(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[u.ID] = &u
	d.byEmail[normalizeEmail(u.Email)] = &u
}

func (d *Directory) ByID(id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func (d *Directory) ByEmail(email string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

// Update applies fn to the stored user under the write lock.
func (d *Directory) Update(id string, fn func(*User) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	return fn(u)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
