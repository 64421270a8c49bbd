package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

func (a *App) company(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: company create|list|status|destroy", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		return a.createCompany(ctx, rest)
	case "list":
		return a.listCompanies(ctx, rest)
	case "status":
		return a.setCompanyStatus(ctx, rest)
	case "destroy":
		return a.destroyCompany(ctx, rest)
	}
	return fmt.Errorf("%w: unknown company subcommand %q", ErrUsage, sub)
}

func (a *App) createCompany(ctx context.Context, args []string) error {
	fs := newFlagSet("company create", a.out)
	name := fs.String("name", "", "company name")
	industry := fs.String("industry", "", "industry")
	size := fs.String("size", "", "size: "+joinNames(models.CompanySizeNames()))
	description := fs.String("description", "", "free-form description")
	status := fs.String("status", "", "status: "+joinNames(models.CompanyStatusNames()))
	fiscal := fs.String("fiscal-year-end", "", "fiscal year end, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	fye, err := parseDate(*fiscal)
	if err != nil {
		return err
	}
	c, err := a.companies.Create(ctx, &models.Company{
		Name:          *name,
		Industry:      *industry,
		Size:          models.CompanySize(*size),
		Description:   *description,
		Status:        models.CompanyStatus(*status),
		FiscalYearEnd: fye,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "company %d created: %s (%s)\n", c.ID, c.Name, c.Status)
	return nil
}

func (a *App) listCompanies(ctx context.Context, args []string) error {
	fs := newFlagSet("company list", a.out)
	status := fs.String("status", "", "list companies in this status instead of active ones")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var (
		list []*models.Company
		err  error
	)
	if *status == "" {
		list, err = a.companies.ListActive(ctx)
	} else {
		list, err = a.companies.ListByStatus(ctx, models.CompanyStatus(*status))
	}
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tNAME\tINDUSTRY\tSIZE\tSTATUS\tFISCAL YEAR END")
	for _, c := range list {
		fye := "-"
		if c.FiscalYearEnd != nil {
			fye = c.FiscalYearEnd.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Industry, c.Size, c.Status, fye)
	}
	return tw.Flush()
}

func (a *App) setCompanyStatus(ctx context.Context, args []string) error {
	pos, err := positional(args, 2, "company status <id> <status>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	c, err := a.companies.SetStatus(ctx, id, models.CompanyStatus(pos[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "company %d status: %s\n", c.ID, c.Status)
	return nil
}

func (a *App) destroyCompany(ctx context.Context, args []string) error {
	pos, err := positional(args, 1, "company destroy <id>")
	if err != nil {
		return err
	}
	id, err := parseID("id", pos[0])
	if err != nil {
		return err
	}
	r, err := a.companies.Destroy(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "company %d destroyed: %d memberships, %d audit entries removed\n", id, r.Memberships, r.AuditLogs)
	return nil
}
