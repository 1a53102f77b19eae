package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository used by tests across
// packages.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64]*User)}
}

func clone(u *User) *User {
	cp := *u
	if u.Role != nil {
		r := *u.Role
		cp.Role = &r
	}
	return &cp
}

// FindByID implements Repository.
func (m *MemoryRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

// FindByMobile implements Repository.
func (m *MemoryRepository) FindByMobile(ctx context.Context, mobile string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.MobileNumber == mobile {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

// FindByUsername implements Repository.
func (m *MemoryRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

// Create implements Repository.
func (m *MemoryRepository) Create(ctx context.Context, in NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.MobileNumber == in.MobileNumber {
			return nil, ErrMobileTaken
		}
		if u.Username == in.Username {
			return nil, ErrUsernameTaken
		}
	}
	m.nextID++
	u := &User{
		ID:           m.nextID,
		FullName:     in.FullName,
		MobileNumber: in.MobileNumber,
		Username:     in.Username,
		Email:        in.Email,
		Gender:       in.Gender,
		AgeOrDOB:     in.AgeOrDOB,
		City:         in.City,
		Role:         in.Role,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	return clone(u), nil
}

// AssignRole implements Repository.
func (m *MemoryRepository) AssignRole(ctx context.Context, id int64, role Role) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Role != nil && *u.Role != role {
		return nil, ErrRoleAlreadySet
	}
	r := role
	u.Role = &r
	return clone(u), nil
}

var _ Repository = (*MemoryRepository)(nil)
