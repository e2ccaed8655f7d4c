package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) requireLogin() error {
	if !a.loggedIn {
		return client.ErrNotLoggedIn
	}
	return nil
}

// handleAuthErr forgets the local login state when the server no longer
// accepts the session.
func (a *App) handleAuthErr(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.loggedIn = false
		a.userName = ""
		return fmt.Errorf("%w, please sign in again", err)
	}
	return err
}

// SignUp prompts for name, email, password and an optional age and creates
// an account. The new session is saved.
func (a *App) SignUp(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ageText, err := getSimpleText(a.reader, "Enter age (optional)", a.out)
	if err != nil {
		return err
	}
	age, err := parseAge(ageText)
	if err != nil {
		return err
	}

	u, err := a.authService.SignUp(ctx, name, email, password, age)
	if err != nil {
		return err
	}

	a.userName = u.Email
	a.loggedIn = true
	fmt.Fprintln(a.out, "Welcome,", u.Name)
	return nil
}

func (a *App) SignIn(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	a.userName = u.Email
	a.loggedIn = true
	fmt.Fprintln(a.out, "Signed in as", u.Email)
	return nil
}

// Logout revokes the current access token and forgets the saved session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	err := a.authService.Logout(ctx)
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}

	a.loggedIn = false
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.authService.Refresh(ctx); err != nil {
		return a.handleAuthErr(err)
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}
