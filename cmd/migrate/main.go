// Command migrate applies the docparse schema migrations from db/migrations.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"docparse/internal/config"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: migrate <command>

commands:
  up         apply all pending migrations
  down       revert all migrations
  steps N    apply N migrations (negative N reverts)
  force N    set the schema version to N and clear the dirty flag
  version    print the current schema version`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: loading config: %v", err)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		log.Fatalf("migrate: opening migration source: %v", err)
	}
	defer m.Close()

	if err := run(m, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("migrate: %s: %v", os.Args[1], err)
	}
}

func run(m *migrate.Migrate, cmd string, args []string) error {
	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("migrate: schema is up to date")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("migrate: schema reverted")

	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Printf("migrate: applied %d steps", n)

	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(n); err != nil {
			return err
		}
		log.Printf("migrate: forced schema version to %d", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)

	default:
		usage()
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, errors.New("missing numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid numeric argument %q", args[0])
	}
	return n, nil
}
