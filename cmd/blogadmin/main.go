// Command blogadmin runs maintenance tasks against the blog database:
// schema migrations and bootstrapping the first superuser.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"blog-server/internal/config"
	"blog-server/internal/database"
	"blog-server/internal/service"
	"blog-server/pkg/connect"
	"blog-server/pkg/logger"
	"blog-server/pkg/migration"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `Usage: blogadmin [--env FILE] <command> [flags]

Commands:
  migrate up|down|version   apply, roll back or inspect schema migrations
  create-superuser          create an account with full admin rights
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("blogadmin", pflag.ContinueOnError)
	global.SetInterspersed(false)
	envFile := global.String("env", ".env", "path to an optional .env file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch rest[0] {
	case "migrate":
		return runMigrate(ctx, cfg, log, rest[1:])
	case "create-superuser":
		return runCreateSuperuser(ctx, cfg, log, rest[1:])
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) != 1 {
		return errors.New("migrate expects exactly one of: up, down, version")
	}
	m := migration.NewDSNMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS(),
		MigrationsPath: "migrations",
	}, cfg.DSN(), log)

	switch args[0] {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "version":
		v, dirty, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
}

func runCreateSuperuser(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := pflag.NewFlagSet("create-superuser", pflag.ContinueOnError)
	username := fs.StringP("username", "u", "", "login name")
	email := fs.StringP("email", "e", "", "email address")
	password := fs.StringP("password", "p", "", "password (falls back to BLOG_SUPERUSER_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("BLOG_SUPERUSER_PASSWORD")
	}

	pool, err := connect.Postgres(ctx, cfg.DSN(), 2, time.Minute, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	admin := service.NewUserAdminService(database.NewPgUserRepository(pool, log), nil, nil, cfg, log)
	user, err := admin.CreateSuperuser(ctx, service.RegisterInput{
		Username:             *username,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Superuser %s created (id %s)\n", user.Username, user.ID)
	return nil
}
