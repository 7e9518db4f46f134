package client

import (
	"context"

	"github.com/dmitrijs2005/socguard/internal/client/models"
)

// AuthBackend authenticates credentials against the remote service.
type AuthBackend interface {
	Login(ctx context.Context, identifier, secret string) (*models.LoginResult, error)
	Ping(ctx context.Context) error
	Close() error
}
