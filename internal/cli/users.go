package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/services"
)

var errPasswordMismatch = errors.New("passwords do not match")

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *App) user(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: user register|list|role|soft-delete|destroy|password", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "register":
		return a.registerUser(ctx, rest)
	case "list":
		return a.listUsers(ctx)
	case "role":
		return a.changeUserRole(ctx, rest)
	case "soft-delete":
		return a.softDeleteUser(ctx, rest)
	case "destroy":
		return a.destroyUser(ctx, rest)
	case "password":
		return a.setUserPassword(ctx, rest)
	}
	return fmt.Errorf("%w: unknown user subcommand %q", ErrUsage, sub)
}

func (a *App) registerUser(ctx context.Context, args []string) error {
	fs := newFlagSet("user register", a.out)
	email := fs.String("email", "", "email address")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	role := fs.String("role", "", "role: "+joinNames(models.UserRoleNames()))
	withPassword := fs.Bool("password", false, "prompt for a password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	p := services.RegisterParams{
		Email:     *email,
		FirstName: *first,
		LastName:  *last,
		Role:      models.UserRole(*role),
	}
	if *withPassword {
		pw, err := a.promptNewPassword()
		if err != nil {
			return err
		}
		defer wipe(pw)
		p.Password = string(pw)
	}

	u, err := a.users.Register(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d registered: %s (%s)\n", u.ID, u.Email, u.Role)
	return nil
}

// promptNewPassword asks twice and requires both entries to match.
func (a *App) promptNewPassword() ([]byte, error) {
	pw, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return nil, err
	}
	again, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		wipe(pw)
		return nil, err
	}
	defer wipe(again)
	if !bytes.Equal(pw, again) {
		wipe(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func (a *App) listUsers(ctx context.Context) error {
	users, err := a.users.ListActive(ctx)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName(), u.Role, formatTime(&u.CreatedAt))
	}
	return tw.Flush()
}

func (a *App) changeUserRole(ctx context.Context, args []string) error {
	pos, err := positional(args, 2, "user role <id> <role>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	u, err := a.users.ChangeRole(ctx, id, models.UserRole(pos[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d role: %s\n", u.ID, u.Role)
	return nil
}

func (a *App) softDeleteUser(ctx context.Context, args []string) error {
	pos, err := positional(args, 1, "user soft-delete <id>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	u, err := a.users.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d deleted at %s\n", u.ID, formatTime(u.DeletedAt))
	return nil
}

func (a *App) destroyUser(ctx context.Context, args []string) error {
	pos, err := positional(args, 1, "user destroy <id>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	r, err := a.users.Destroy(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d destroyed: %d memberships, %d audit entries removed\n", id, r.Memberships, r.AuditLogs)
	return nil
}

func (a *App) setUserPassword(ctx context.Context, args []string) error {
	pos, err := positional(args, 1, "user password <id>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	pw, err := a.promptNewPassword()
	if err != nil {
		return err
	}
	defer wipe(pw)
	if err := a.credentials.SetPassword(ctx, id, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d password updated\n", id)
	return nil
}
