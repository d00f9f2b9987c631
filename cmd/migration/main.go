package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

var log = logging.New(logging.ParseLevel(os.Getenv("APP_LOG_LEVEL")), true).Named("migration")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	if err := run(strings.ToLower(strings.TrimSpace(os.Args[1])), os.Args[2:]); err != nil {
		log.Error("fixture cache migration failed", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	raw := strings.TrimSpace(os.Getenv("DB_URL"))
	if raw == "" {
		return errors.New("DB_URL is required")
	}
	disableBinary, err := strconv.ParseBool(cmpOr(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT"), "true"))
	if err != nil {
		return fmt.Errorf("invalid DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	settings := postgres.ParseSettings(raw, disableBinary)

	m, err := postgres.NewMigrator(settings.URL)
	if err != nil {
		return err
	}
	defer postgres.CloseMigrator(m, log)

	switch cmd {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return err
		}
	case "down":
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-steps)); err != nil {
			return err
		}
	case "force":
		version, err := argVersion(args)
		if err != nil {
			return err
		}
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	case "goto":
		version, err := argVersion(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Migrate(version)); err != nil {
			return err
		}
	case "version":
	default:
		printUsage()
		os.Exit(2)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("fixture cache schema", "database", settings.Redacted(), "version", "none")
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		log.Info("fixture cache schema", "database", settings.Redacted(), "version", version, "dirty", dirty)
	}
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("no migration changes")
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || steps <= 0 {
		return 0, fmt.Errorf("down steps must be a positive integer, got %q", args[0])
	}
	return steps, nil
}

// argVersion reads a migration version that still fits in an int, which is
// what migrate.Force takes.
func argVersion(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("a version argument is required")
	}
	value, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, strconv.IntSize-1)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return uint(value), nil
}

func cmpOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [steps]|version|force <version>|goto <version>>\n", name)
}
