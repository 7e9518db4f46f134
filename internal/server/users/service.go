package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/cryptox"
	"github.com/dmitrijs2005/socguard/internal/server/auth"
	"github.com/dmitrijs2005/socguard/internal/server/config"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

type LoginResult struct {
	Token string
	User  User
}

type Service struct {
	repo                        Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	dummySalt                   []byte
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                        repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		dummySalt:                   common.GenerateRandByteArray(cryptox.SaltSize),
	}
}

// Login checks secret against the stored verifier and issues a token.
// Unknown identifiers and wrong secrets both yield ErrUnauthorized, and both
// pay for one key derivation.
func (s *Service) Login(ctx context.Context, identifier string, secret []byte) (*LoginResult, error) {
	user, err := s.repo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.Verify(secret, s.dummySalt, nil)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if !cryptox.Verify(secret, user.Salt, user.Verifier) {
		return nil, ErrUnauthorized
	}

	token, err := auth.GenerateToken(user.Identifier, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return &LoginResult{Token: token, User: *user}, nil
}
