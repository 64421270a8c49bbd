package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
)

func (a *App) auditCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: audit record|list|archive", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "record":
		return a.recordAudit(ctx, rest)
	case "list":
		return a.listAudit(ctx, rest)
	case "archive":
		return a.archiveAudit(ctx, rest)
	}
	return fmt.Errorf("%w: unknown audit subcommand %q", ErrUsage, sub)
}

func parseRef(s string) (*models.Auditable, error) {
	if s == "" {
		return nil, nil
	}
	ref, err := models.ParseAuditable(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return &ref, nil
}

func (a *App) recordAudit(ctx context.Context, args []string) error {
	fs := newFlagSet("audit record", a.out)
	action := fs.String("action", "", "action: "+joinNames(models.AuditActionNames()))
	ref := fs.String("auditable", "", "audited entity as Type#id, e.g. Company#7")
	resourceType := fs.String("resource-type", "", "resource type, required")
	resourceID := fs.Int64("resource-id", 0, "resource id, defaults to the auditable id")
	user := fs.Int64("user", 0, "acting user id")
	company := fs.Int64("company", 0, "company context id")
	changes := fs.String("changes", "", "serialized change set")
	ip := fs.String("ip", "", "client IP address")
	agent := fs.String("agent", "", "client user agent")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	auditable, err := parseRef(*ref)
	if err != nil {
		return err
	}
	e, err := a.audit.Record(ctx, &models.AuditLog{
		UserID:       optionalID(*user),
		CompanyID:    optionalID(*company),
		Auditable:    auditable,
		Action:       models.AuditAction(*action),
		ResourceType: *resourceType,
		ResourceID:   optionalID(*resourceID),
		AuditChanges: *changes,
		IPAddress:    *ip,
		UserAgent:    *agent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "audit entry %d recorded: %s %s\n", e.ID, e.Action, e.Auditable)
	return nil
}

func (a *App) listAudit(ctx context.Context, args []string) error {
	fs := newFlagSet("audit list", a.out)
	user := fs.Int64("user", 0, "only entries by this user")
	company := fs.Int64("company", 0, "only entries in this company")
	ref := fs.String("auditable", "", "only entries about this entity, Type#id")
	action := fs.String("action", "", "only entries with this action")
	recent := fs.Bool("recent", false, "newest first")
	limit := fs.Int("limit", 0, "maximum number of entries, 0 for all")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	q := auditlogs.Query{
		UserID:    optionalID(*user),
		CompanyID: optionalID(*company),
		Recent:    *recent,
		Limit:     *limit,
	}
	var err error
	if q.Auditable, err = parseRef(*ref); err != nil {
		return err
	}
	if *action != "" {
		act, err := models.ParseAuditAction(*action)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		q.Action = &act
	}

	entries, err := a.audit.Query(ctx, q)
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tCREATED\tACTION\tAUDITABLE\tUSER\tCOMPANY\tIP")
	for _, e := range entries {
		target := "-"
		if e.Auditable != nil {
			target = e.Auditable.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, formatTime(&e.CreatedAt), e.Action, target, idOrDash(e.UserID), idOrDash(e.CompanyID), orDash(e.IPAddress))
	}
	return tw.Flush()
}

func (a *App) archiveAudit(ctx context.Context, args []string) error {
	fs := newFlagSet("audit archive", a.out)
	company := fs.Int64("company", 0, "company whose audit trail is archived")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *company <= 0 {
		return fmt.Errorf("%w: audit archive requires -company", ErrUsage)
	}

	res, err := a.archiver.Export(ctx, *company)
	if err != nil {
		return err
	}
	if res.Count == 0 {
		fmt.Fprintf(a.out, "company %d has no audit entries; nothing archived\n", *company)
		return nil
	}
	fmt.Fprintf(a.out, "archived %d entries to %s\n", res.Count, res.Key)
	return nil
}
