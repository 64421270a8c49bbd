package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

func (a *App) member(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: member add|role|remove|list", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		return a.addMember(ctx, rest)
	case "role":
		return a.changeMemberRole(ctx, rest)
	case "remove":
		return a.removeMember(ctx, rest)
	case "list":
		return a.listMembers(ctx, rest)
	}
	return fmt.Errorf("%w: unknown member subcommand %q", ErrUsage, sub)
}

type memberFlags struct {
	user, company int64
	role          string
}

func (a *App) parseMemberFlags(name string, args []string, withRole bool) (*memberFlags, error) {
	var mf memberFlags
	fs := newFlagSet(name, a.out)
	fs.Int64Var(&mf.user, "user", 0, "user id")
	fs.Int64Var(&mf.company, "company", 0, "company id")
	if withRole {
		fs.StringVar(&mf.role, "role", "", "role: "+joinNames(models.MembershipRoleNames()))
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if mf.user <= 0 || mf.company <= 0 {
		return nil, fmt.Errorf("%w: %s requires -user and -company", ErrUsage, name)
	}
	return &mf, nil
}

func (a *App) addMember(ctx context.Context, args []string) error {
	mf, err := a.parseMemberFlags("member add", args, true)
	if err != nil {
		return err
	}
	m, err := a.memberships.Add(ctx, mf.user, mf.company, models.MembershipRole(mf.role))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "membership %d: user %d is %s of company %d\n", m.ID, m.UserID, m.Role, m.CompanyID)
	return nil
}

func (a *App) changeMemberRole(ctx context.Context, args []string) error {
	mf, err := a.parseMemberFlags("member role", args, true)
	if err != nil {
		return err
	}
	m, err := a.memberships.ChangeRole(ctx, mf.user, mf.company, models.MembershipRole(mf.role))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "membership %d role: %s\n", m.ID, m.Role)
	return nil
}

func (a *App) removeMember(ctx context.Context, args []string) error {
	mf, err := a.parseMemberFlags("member remove", args, false)
	if err != nil {
		return err
	}
	if err := a.memberships.Remove(ctx, mf.user, mf.company); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d removed from company %d\n", mf.user, mf.company)
	return nil
}

func (a *App) listMembers(ctx context.Context, args []string) error {
	fs := newFlagSet("member list", a.out)
	user := fs.Int64("user", 0, "list the companies of this user")
	company := fs.Int64("company", 0, "list the members of this company")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var (
		list []*models.CompanyUser
		err  error
	)
	switch {
	case *company > 0 && *user == 0:
		list, err = a.memberships.ListForCompany(ctx, *company)
	case *user > 0 && *company == 0:
		list, err = a.memberships.ListForUser(ctx, *user)
	default:
		return fmt.Errorf("%w: member list takes exactly one of -user or -company", ErrUsage)
	}
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tUSER\tCOMPANY\tROLE")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", m.ID, m.UserID, m.CompanyID, m.Role)
	}
	return tw.Flush()
}
