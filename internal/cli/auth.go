package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in
// tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, name and password and creates an account.
// On success the account is logged in immediately. The password byte
// slice is wiped before returning.
func (c *CLI) Register(ctx context.Context) error {
	email, err := getSimpleText(c.reader, "Enter email", c.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(c.reader, "Enter display name", c.out)
	if err != nil {
		return err
	}
	password, err := getPassword(c.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := c.app.Register(ctx, email, string(password), name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	fmt.Fprintf(c.out, "Registered and logged in as %s\n", user.Email)
	return nil
}

// Login prompts for credentials and starts a session.
func (c *CLI) Login(ctx context.Context) error {
	email, err := getSimpleText(c.reader, "Enter email", c.out)
	if err != nil {
		return err
	}
	password, err := getPassword(c.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := c.app.Login(ctx, email, string(password))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	fmt.Fprintf(c.out, "Logged in as %s\n", user.Email)
	return nil
}

// Demo enters demo mode with sample data.
func (c *CLI) Demo(ctx context.Context) error {
	user, err := c.app.LoginDemo(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	fmt.Fprintf(c.out, "Demo mode, browsing as %s\n", user.Name)
	return nil
}

// Logout ends the current session.
func (c *CLI) Logout(ctx context.Context) error {
	c.app.Logout(ctx)
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

// Whoami reports the user behind the live session.
func (c *CLI) Whoami(ctx context.Context) error {
	user, err := c.app.CurrentUser(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if user == nil {
		fmt.Fprintln(c.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(c.out, "%s <%s>\n", user.Name, user.Email)
	return nil
}

// Passwd rotates the password of the current account.
func (c *CLI) Passwd(ctx context.Context) error {
	snap := c.app.Snapshot()
	if !snap.IsAuthenticated || snap.IsDemoMode || snap.User == nil {
		fmt.Fprintln(c.out, "Log in with a real account first")
		return nil
	}

	current, err := getPassword(c.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword(c.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := c.app.ChangePassword(ctx, snap.User.Email, string(current), string(next)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	fmt.Fprintln(c.out, "Password changed")
	return nil
}

// DeleteAccount removes the current account after password confirmation.
func (c *CLI) DeleteAccount(ctx context.Context) error {
	snap := c.app.Snapshot()
	if !snap.IsAuthenticated || snap.IsDemoMode || snap.User == nil {
		fmt.Fprintln(c.out, "Log in with a real account first")
		return nil
	}

	password, err := getPassword(c.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := c.app.DeleteAccount(ctx, snap.User.Email, string(password)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	fmt.Fprintln(c.out, "Account deleted")
	return nil
}
