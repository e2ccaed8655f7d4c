// Package services contains application services for the spendkeeper CLI.
// This file defines the session service: sign-up, sign-in, logout, refresh
// and the local persistence of the session tokens.
package services

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
)

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Restore: load a previously saved session into the API client.
//   - SignUp / SignIn: authenticate against the server and save the session.
//   - Logout: revoke the access token and forget the session.
//   - Refresh: rotate the token pair.
//   - Ping: check server health.
//   - Close: release underlying client resources.
type AuthService interface {
	Restore(ctx context.Context) (email string, ok bool, err error)
	SignUp(ctx context.Context, name, email string, password []byte, age *int) (*api.User, error)
	SignIn(ctx context.Context, email string, password []byte) (*api.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService binds the API client to the local database. Every token
// change seen by the client, silent refreshes included, is written through
// to the metadata store.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	s := &authService{client: c, db: db}
	c.OnTokensChanged(func(access, refresh string) {
		if err := s.saveTokens(context.Background(), access, refresh); err != nil {
			log.Printf("failed to save session: %v", err)
		}
	})
	return s
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) saveTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if access == "" && refresh == "" {
			return repo.Clear(ctx)
		}
		if err := repo.Set(ctx, metadata.KeyAccessToken, []byte(access)); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyRefreshToken, []byte(refresh))
	})
}

func (a *authService) Restore(ctx context.Context) (string, bool, error) {
	repo := a.getMetadataRepo(a.db)

	access, err := repo.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", false, err
	}
	refresh, err := repo.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		return "", false, err
	}
	if len(access) == 0 && len(refresh) == 0 {
		return "", false, nil
	}

	email, err := repo.Get(ctx, metadata.KeyEmail)
	if err != nil {
		return "", false, err
	}

	a.client.SetTokens(string(access), string(refresh))
	return string(email), true, nil
}

func (a *authService) rememberEmail(ctx context.Context, email string) error {
	return a.getMetadataRepo(a.db).Set(ctx, metadata.KeyEmail, []byte(strings.ToLower(strings.TrimSpace(email))))
}

func (a *authService) SignUp(ctx context.Context, name, email string, password []byte, age *int) (*api.User, error) {
	u, err := a.client.SignUp(ctx, name, email, password, age)
	if err != nil {
		return nil, err
	}
	return u, a.rememberEmail(ctx, u.Email)
}

func (a *authService) SignIn(ctx context.Context, email string, password []byte) (*api.User, error) {
	u, err := a.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return u, a.rememberEmail(ctx, u.Email)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

func (a *authService) Refresh(ctx context.Context) error {
	return a.client.Refresh(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
