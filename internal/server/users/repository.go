package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/socguard/internal/common"
)

type Repository interface {
	GetUserByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// FileRepository is a read-only directory loaded once at startup.
type FileRepository struct {
	users map[string]User
}

// NewFileRepository indexes users by identifier. Duplicates and incomplete
// records are rejected.
func NewFileRepository(list []User) (*FileRepository, error) {
	r := &FileRepository{users: make(map[string]User, len(list))}
	for _, u := range list {
		if err := u.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.users[u.Identifier]; dup {
			return nil, fmt.Errorf("duplicate user %q", u.Identifier)
		}
		r.users[u.Identifier] = u
	}
	return r, nil
}

// LoadFile reads a JSON array of users from path.
func LoadFile(path string) (*FileRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var list []User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse users file %s: %w", path, err)
	}
	return NewFileRepository(list)
}

func (r *FileRepository) GetUserByIdentifier(_ context.Context, identifier string) (*User, error) {
	u, ok := r.users[identifier]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *FileRepository) Len() int {
	return len(r.users)
}
