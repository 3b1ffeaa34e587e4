package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/target/courseshop/internal/bootstrap"
	"github.com/target/courseshop/internal/devseed"
	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/migrate"
	"github.com/target/courseshop/internal/service"
)

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

type usersListOptions struct {
	Limit  int
	Offset int
}

type confirmFlags struct {
	Yes         bool
	AllowRemote bool
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseMigrateFlags(args []string, out io.Writer) (migrateOptions, error) {
	fs := newFlagSet("migrate", out)
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for migrations to complete")
	fs.BoolVar(&opts.Status, "status", false, "List migrations and whether they are applied")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		if opts.Status {
			statuses, listErr := migrate.List(ctx, db)
			if listErr != nil {
				return fmt.Errorf("list migrations: %w", listErr)
			}
			return printMigrationStatus(cmdCtx.Out, statuses)
		}

		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func printMigrationStatus(w io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "VERSION\tAPPLIED\n"); err != nil {
		return err
	}
	for _, s := range statuses {
		if err := writef(tw, "%s\t%t\n", s.Version, s.Applied); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func parseDBSeedFlags(args []string, out io.Writer) (dbSeedOptions, error) {
	fs := newFlagSet("db-seed", out)
	opts := dbSeedOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for migrations and seeding")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Allow seeding a database that does not look local")
	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}
	if guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "seed development data"); guardErr != nil {
		return guardErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		svcs, svcErr := seedServices(bootstrap.PostgresRepositories(db), cmdCtx)
		if svcErr != nil {
			return svcErr
		}
		cmdCtx.Logger.Info("seeding development data")
		if seedErr := devseed.Run(ctx, svcs, cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}
		cmdCtx.Logger.Info("database seeding completed successfully")
		return nil
	})
}

func seedServices(repos bootstrap.Repositories, cmdCtx *commandContext) (devseed.Services, error) {
	accounts, err := service.NewAccountService(service.AccountServiceOptions{Users: repos.Users, Logger: cmdCtx.Logger})
	if err != nil {
		return devseed.Services{}, err
	}
	return devseed.Services{
		Accounts: accounts,
		Courses:  service.NewCourseService(service.CourseServiceOptions{Courses: repos.Courses}),
	}, nil
}

// userAdmin is the slice of the account service the users command needs.
type userAdmin interface {
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

func runUsers(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: users list [--limit N] [--offset N] | users delete <id> [--yes]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "delete":
	default:
		return fmt.Errorf("unknown users subcommand %q", sub)
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		accounts, err := service.NewAccountService(service.AccountServiceOptions{
			Users:  bootstrap.PostgresRepositories(db).Users,
			Logger: cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		if sub == "list" {
			return listUsers(ctx, cmdCtx, accounts, rest)
		}
		return deleteUser(ctx, cmdCtx, accounts, rest)
	})
}

func listUsers(ctx context.Context, cmdCtx *commandContext, users userAdmin, args []string) error {
	fs := newFlagSet("users list", cmdCtx.Out)
	opts := usersListOptions{}
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum number of accounts to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of accounts to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return errors.New("--limit must be positive and --offset non-negative")
	}

	list, err := users.List(ctx, opts.Limit, opts.Offset)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return printUsers(cmdCtx.Out, list)
}

func printUsers(w io.Writer, users []*model.User) error {
	if len(users) == 0 {
		return writeln(w, "No accounts found.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tEMAIL\tNAME\tCREATED\n"); err != nil {
		return err
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func parseConfirmFlags(name string, args []string, out io.Writer) (confirmFlags, []string, error) {
	fs := newFlagSet(name, out)
	opts := confirmFlags{}
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Allow running against a database that does not look local")
	if err := fs.Parse(args); err != nil {
		return confirmFlags{}, nil, err
	}
	return opts, fs.Args(), nil
}

func deleteUser(ctx context.Context, cmdCtx *commandContext, users userAdmin, args []string) error {
	// Accept the id before or after the flags.
	var id string
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		id, args = args[0], args[1:]
	}
	opts, rest, err := parseConfirmFlags("users delete", args, cmdCtx.Out)
	if err != nil {
		return err
	}
	if id == "" && len(rest) > 0 {
		id = rest[0]
	}
	if id == "" {
		return errors.New("usage: users delete <id> [--yes]")
	}
	if guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "delete an account"); guardErr != nil {
		return guardErr
	}
	if confirmErr := confirmAction(cmdCtx, opts.Yes, "delete account", fmt.Sprintf("id %q", id)); confirmErr != nil {
		return confirmErr
	}

	deleted, err := users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no account with id %q", id)
	}
	cmdCtx.Logger.Info("account deleted", "user_id", id)
	return writef(cmdCtx.Out, "Deleted account %s.\n", id)
}

func runSessions(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 || args[0] != "purge" {
		return errors.New("usage: sessions purge [--yes]")
	}
	opts, _, err := parseConfirmFlags("sessions purge", args[1:], cmdCtx.Out)
	if err != nil {
		return err
	}
	return withSessionBackend(cmdCtx, defaultCommandTimeout, func(ctx context.Context, backend *bootstrap.SessionBackend) error {
		return purgeSessions(ctx, cmdCtx, backend, opts)
	})
}

func purgeSessions(ctx context.Context, cmdCtx *commandContext, backend *bootstrap.SessionBackend, opts confirmFlags) error {
	if backend.Purger == nil {
		return fmt.Errorf("session store %q cannot enumerate its sessions; flush it with the backend's own tooling", backend.Kind)
	}
	if confirmErr := confirmAction(cmdCtx, opts.Yes, "sign out every user", fmt.Sprintf("the %s session store", backend.Kind)); confirmErr != nil {
		return confirmErr
	}
	n, err := backend.Purger.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	cmdCtx.Logger.Info("sessions purged", "store", backend.Kind, "removed", n)
	return writef(cmdCtx.Out, "Removed %d sessions.\n", n)
}
