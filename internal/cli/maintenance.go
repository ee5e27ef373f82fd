package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/locallibrary/internal/config"
	loansRepo "github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// MaintenanceCommand runs the overdue sweep and the audit retention job once,
// in process, without the task queue.
type MaintenanceCommand struct {
	DatabasePath  string
	AsOf          string
	RetentionDays int
	DryRun        bool
	Out           io.Writer
}

func NewMaintenanceCommand() *MaintenanceCommand {
	return &MaintenanceCommand{}
}

func (cmd *MaintenanceCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.AsOf, "as-of", "", "Day to check loans against, YYYY-MM-DD (default today)")
	fs.IntVar(&cmd.RetentionDays, "retention-days", tasks.DefaultAuditRetentionDays, "Delete audit events older than this many days")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List overdue copies without recording or deleting anything")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s maintenance [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Record overdue loans and apply audit retention.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AsOf != "" {
		if _, err := time.Parse("2006-01-02", cmd.AsOf); err != nil {
			return fmt.Errorf("invalid -as-of %q: expected YYYY-MM-DD", cmd.AsOf)
		}
	}
	if cmd.RetentionDays < 1 {
		return fmt.Errorf("-retention-days must be at least 1")
	}
	return nil
}

func (cmd *MaintenanceCommand) Run() error {
	out := output(cmd.Out)
	ctx := context.Background()

	env, err := openEnvironment(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer env.Close()

	loans := loansRepo.NewRepository(env.db.DB)
	overdueTask := tasks.FindOverdueLoansTask{AsOf: cmd.AsOf}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if cmd.AsOf != "" {
		asOf, _ = time.Parse("2006-01-02", cmd.AsOf)
	}
	overdue, err := loans.ListOverdue(ctx, asOf)
	if err != nil {
		return fmt.Errorf("failed to list overdue loans: %w", err)
	}

	fmt.Fprintf(out, "Overdue copies as of %s: %d\n", asOf.Format("2006-01-02"), len(overdue))
	for _, bi := range overdue {
		if bi.DueBack != nil {
			fmt.Fprintf(out, "  %s due %s\n", bi.ID, bi.DueBack.Format("2006-01-02"))
		}
	}

	if cmd.DryRun {
		fmt.Fprintln(out, "Dry run complete. Use without -dry-run to record.")
		return nil
	}

	if err := tasks.FindOverdueLoansProcessor(loans, env.audit)(ctx, overdueTask); err != nil {
		return fmt.Errorf("overdue sweep failed: %w", err)
	}
	if err := tasks.CleanupAuditEventsProcessor(env.audit)(ctx, tasks.CleanupAuditEventsTask{RetentionDays: cmd.RetentionDays}); err != nil {
		return fmt.Errorf("audit cleanup failed: %w", err)
	}

	fmt.Fprintln(out, "Maintenance complete.")
	return nil
}
