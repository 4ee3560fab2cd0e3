package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/orderflow/backend/internal/infrastructure/config"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/orderflow/backend/internal/infrastructure/logger"
	"github.com/orderflow/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	// Parse flags
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Get command and arguments
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Determine migrations path
	if migrationsPath == "" {
		// Try to find migrations directory relative to executable or current dir
		if _, err := os.Stat(defaultMigrationsPath); err == nil {
			migrationsPath = defaultMigrationsPath
		} else {
			// Try relative to executable
			execPath, err := os.Executable()
			if err == nil {
				execDir := filepath.Dir(execPath)
				candidatePath := filepath.Join(execDir, "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidatePath); err == nil {
					migrationsPath = candidatePath
				}
			}
		}
		if migrationsPath == "" {
			migrationsPath = defaultMigrationsPath
		}
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsPath = absPath

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
	)

	// Handle create command separately (doesn't need DB)
	if command == "create" {
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		name := args[1]
		description := ""
		if len(args) > 2 {
			description = args[2]
		}

		mf, err := migration.CreateMigration(migrationsPath, name, description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}

		log.Info("Migration created successfully",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	}

	// Handle list command (doesn't need DB connection)
	if command == "list" {
		migrations, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}

		if len(migrations) == 0 {
			log.Info("No migrations found")
			return
		}

		log.Info("Available migrations", zap.Int("count", len(migrations)))
		for _, m := range migrations {
			fmt.Println("  -", m)
		}
		return
	}

	// Commands that need database connection
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Verify connection
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	// Event payload upgrades operate on outbox rows, not schema files
	if command == "events" {
		runEventsCommand(db, log, args[1:])
		return
	}

	// Create migrator
	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	// Execute command
	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	case "drop":
		log.Warn("This will DROP all database objects. Are you sure? (use -confirm flag)")
		// For safety, require explicit confirmation
		confirm := false
		for _, arg := range args[1:] {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			log.Fatal("Drop cancelled. Use 'migrate drop -confirm' to confirm.")
		}
		if err := m.Drop(); err != nil {
			log.Fatal("Drop failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

type outboxPayloadRow struct {
	id      string
	payload []byte
}

// runEventsCommand analyzes or upgrades stored outbox payloads whose schema
// version lags behind the registered current version of their event type.
func runEventsCommand(db *sql.DB, log *zap.Logger, args []string) {
	if len(args) < 2 {
		log.Fatal("Usage: migrate events <analyze|upgrade> <event_type> [-dry-run]")
	}
	action := args[0]
	eventType := args[1]

	dryRun := false
	for _, arg := range args[2:] {
		if arg == "-dry-run" || arg == "--dry-run" {
			dryRun = true
		}
	}

	serializer := event.NewVersionedSerializer(log)
	event.RegisterAllEvents(serializer)
	migrator := event.NewEventMigrator(serializer, log)

	rows, err := loadOutboxPayloads(db, eventType)
	if err != nil {
		log.Fatal("Failed to load outbox payloads", zap.Error(err))
	}
	if len(rows) == 0 {
		log.Info("No stored events of this type", zap.String("event_type", eventType))
		return
	}

	payloads := make([][]byte, len(rows))
	for i, r := range rows {
		payloads[i] = r.payload
	}

	switch action {
	case "analyze":
		analysis, err := migrator.AnalyzePayloads(eventType, payloads)
		if err != nil {
			log.Fatal("Analysis failed", zap.Error(err))
		}
		log.Info("Event version spread",
			zap.String("event_type", analysis.EventType),
			zap.Int("current_version", analysis.CurrentVersion),
			zap.Int("total", analysis.TotalEvents),
			zap.Int("needs_migration", analysis.NeedsMigration),
			zap.Int("up_to_date", analysis.UpToDate),
			zap.Int("oldest_version", analysis.OldestVersion),
		)

		plan, err := migrator.CreateMigrationPlan(eventType, analysis.OldestVersion)
		if err != nil {
			log.Fatal("Failed to build upgrade plan", zap.Error(err))
		}
		for _, step := range plan.UpgradeSteps {
			log.Info("Upgrade step",
				zap.Int("from_version", step.FromVersion),
				zap.Int("to_version", step.ToVersion),
				zap.Bool("has_upgrader", step.HasUpgrader),
			)
		}
		if !plan.IsValid() {
			log.Warn("Upgrade chain is incomplete; an upgrade run would fail")
		}

	case "upgrade":
		if err := migrator.ValidateUpgradeChain(eventType); err != nil {
			log.Fatal("Upgrade chain is incomplete", zap.Error(err))
		}

		var persist event.PersistFunc
		if !dryRun {
			persist = func(index int, upgraded []byte) error {
				_, err := db.Exec(
					`UPDATE outbox_events SET payload = $1, updated_at = now() WHERE id = $2`,
					upgraded, rows[index].id,
				)
				return err
			}
		}

		result, err := migrator.MigratePayloads(context.Background(), eventType, payloads, persist)
		if err != nil {
			log.Fatal("Event upgrade failed", zap.Error(err))
		}

		for _, failed := range result.FailedPayloads {
			log.Error("Payload could not be upgraded",
				zap.Int("from_version", failed.Version),
				zap.String("error", failed.Error),
			)
		}
		log.Info("Event upgrade finished",
			zap.String("event_type", result.EventType),
			zap.Int("total", result.TotalProcessed),
			zap.Int("upgraded", result.Upgraded),
			zap.Int("already_current", result.AlreadyCurrent),
			zap.Int("failed", result.Failed),
			zap.Int("to_version", result.ToVersion),
			zap.Duration("took", result.Duration()),
			zap.Bool("dry_run", dryRun),
		)

	default:
		log.Fatal("Unknown events action. Usage: migrate events <analyze|upgrade> <event_type> [-dry-run]",
			zap.String("action", action))
	}
}

func loadOutboxPayloads(db *sql.DB, eventType string) ([]outboxPayloadRow, error) {
	rows, err := db.Query(
		`SELECT id, payload FROM outbox_events WHERE event_type = $1 ORDER BY created_at`,
		eventType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []outboxPayloadRow
	for rows.Next() {
		var row outboxPayloadRow
		if err := rows.Scan(&row.id, &row.payload); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func printUsage() {
	fmt.Println(`Orderflow Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all database objects (DANGEROUS)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations
  events analyze <type>            Report the schema version spread of stored events
  events upgrade <type> [-dry-run] Upgrade stored event payloads to the current schema

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  ORDERFLOW_DATABASE_HOST, ORDERFLOW_DATABASE_PORT, ORDERFLOW_DATABASE_USER,
  ORDERFLOW_DATABASE_PASSWORD, ORDERFLOW_DATABASE_NAME, ORDERFLOW_DATABASE_SSL_MODE

Examples:
  # Apply all pending migrations
  migrate up

  # Roll back the last migration
  migrate step -1

  # Create a new migration
  migrate create add_orders_table "Create orders table with workflow columns"

  # Check current version
  migrate version`)
}
