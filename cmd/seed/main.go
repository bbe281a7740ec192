package main

import (
	"context"
	"flag"
	"log"
	"time"

	"stratus/internal/config"
	"stratus/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Seed demo data
	log.Println("📝 Seeding demo users and accounts...")
	if err := seedDemoData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Println("✅ Seeding complete")
}

func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL,
			is_registered BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	createAccounts := `
		CREATE TABLE IF NOT EXISTS ` + tables.Accounts + ` (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			provider TEXT NOT NULL,
			provider_user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expiry TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createAccounts); err != nil {
		return err
	}

	createNodeSettings := `
		CREATE TABLE IF NOT EXISTS ` + tables.NodeSettings + ` (
			node_id TEXT PRIMARY KEY,
			folder_id TEXT,
			folder_name TEXT NOT NULL DEFAULT '',
			folder_path TEXT NOT NULL DEFAULT '',
			account_id TEXT REFERENCES ` + tables.Accounts + `(id) ON DELETE SET NULL,
			authorizer_id TEXT REFERENCES ` + tables.Users + `(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createNodeSettings); err != nil {
		return err
	}

	createGrants := `
		CREATE TABLE IF NOT EXISTS ` + tables.Grants + ` (
			account_id TEXT NOT NULL REFERENCES ` + tables.Accounts + `(id) ON DELETE CASCADE,
			node_id TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (account_id, node_id)
		)
	`
	if _, err := pool.Exec(ctx, createGrants); err != nil {
		return err
	}

	createNodeLogs := `
		CREATE TABLE IF NOT EXISTS ` + tables.NodeLogs + ` (
			id TEXT PRIMARY KEY,
			node_id TEXT NOT NULL,
			action TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			params JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createNodeLogs); err != nil {
		return err
	}

	createContributors := `
		CREATE TABLE IF NOT EXISTS ` + tables.Contributors + ` (
			node_id TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (node_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createContributors); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `accounts_owner ON ` + tables.Accounts + `(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `node_logs_node ON ` + tables.NodeLogs + `(node_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `contributors_node ON ` + tables.Contributors + `(node_id, position)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Contributors,
		tables.NodeLogs,
		tables.Grants,
		tables.NodeSettings,
		tables.Accounts,
		tables.Users,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// seedDemoData creates two demo users, a linked account for the first and a
// two-person contributor list on a demo node.
func seedDemoData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	aliceID := uuid.NewString()
	bobID := uuid.NewString()
	accountID := uuid.NewString()
	nodeID := uuid.NewString()

	users := []struct {
		id, email, name string
	}{
		{aliceID, "alice@example.com", "Alice Demo"},
		{bobID, "bob@example.com", "Bob Demo"},
	}
	for _, u := range users {
		_, err := pool.Exec(ctx,
			"INSERT INTO "+tables.Users+" (id, email, full_name) VALUES ($1, $2, $3)",
			u.id, u.email, u.name)
		if err != nil {
			return err
		}
	}

	_, err := pool.Exec(ctx,
		"INSERT INTO "+tables.Accounts+
			" (id, owner_id, provider, provider_user_id, display_name, access_token, refresh_token, expiry)"+
			" VALUES ($1, $2, 'stratus', $3, $4, $5, $6, $7)",
		accountID, aliceID, uuid.NewString(), "Alice Demo",
		"demo-access-token", "demo-refresh-token", time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO "+tables.NodeSettings+
			" (node_id, account_id, authorizer_id) VALUES ($1, $2, $3)",
		nodeID, accountID, aliceID)
	if err != nil {
		return err
	}

	contributors := []struct {
		userID   string
		position int
	}{
		{aliceID, 0},
		{bobID, 1},
	}
	for _, c := range contributors {
		_, err := pool.Exec(ctx,
			"INSERT INTO "+tables.Contributors+" (node_id, user_id, position) VALUES ($1, $2, $3)",
			nodeID, c.userID, c.position)
		if err != nil {
			return err
		}
	}

	log.Printf("  ✓ Seeded node %s with account %s", nodeID, accountID)
	return nil
}
