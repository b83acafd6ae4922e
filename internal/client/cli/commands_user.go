package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/cryptox"
)

// Register records the current user's profile with the server.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	displayName, err := getSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Enter phone number", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	u, err := a.client.Register(ctx, api.User{ID: a.userID, UserName: userName, DisplayName: displayName, Phone: phone})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered as %s\n", u.ID)
	return nil
}

// Admin unlocks the moderator commands with the shared password.
func (a *App) Admin(ctx context.Context) error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	if err := a.client.AdminLogin(ctx, a.userID, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Moderator mode enabled")
	return nil
}
