package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/edavydenko/mylist/internal/common"
)

func (a *App) Login(ctx context.Context, args []string) {
	username, err := a.usernameArg(args)
	if err != nil {
		a.printf("%v", err)
		return
	}

	res, err := a.session.Login(ctx, username)
	if err != nil {
		a.printAuthError(err)
		return
	}
	if res.NeedsRegistration {
		a.printf("No account named %q, use \"register %s\" to create one", username, username)
		return
	}
	a.printf("%s", res.Message)
	if res.Offline {
		a.printf("Server unreachable, working offline")
	}
}

func (a *App) Register(ctx context.Context, args []string) {
	username, err := a.usernameArg(args)
	if err != nil {
		a.printf("%v", err)
		return
	}

	res, err := a.session.Register(ctx, username)
	if err != nil {
		a.printAuthError(err)
		return
	}
	a.printf("%s", res.Message)
	if res.Offline {
		a.printf("Server unreachable, the account will sync when you are back online")
	}
}

func (a *App) Logout(ctx context.Context) {
	if !a.isLoggedIn() {
		a.printf("Not logged in")
		return
	}
	if err := a.session.Logout(ctx); err != nil {
		a.printf("Error logging out: %v", err)
		return
	}
	a.lastSearch = nil
	a.printf("Logged out")
}

func (a *App) usernameArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: login|register <username>")
	}
	return args[0], nil
}

func (a *App) printAuthError(err error) {
	switch {
	case errors.Is(err, common.ErrInvalidUsername):
		a.printf("Usernames are %d-%d characters: letters, numbers, dots, dashes, underscores",
			common.UsernameMinLen, common.UsernameMaxLen)
	case errors.Is(err, common.ErrUsernameTaken):
		a.printf("That username is already taken")
	default:
		a.printf("%v", fmt.Errorf("error: %w", err))
	}
}
