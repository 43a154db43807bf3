package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"wastesort/internal/database"
)

func main() {
	var (
		dbType         = flag.String("db", getEnv("DB_TYPE", "postgres"), "Database type (postgres or sqlite)")
		host           = flag.String("host", getEnv("DB_HOST", "localhost"), "Database host")
		port           = flag.Int("port", getEnvInt("DB_PORT", 5432), "Database port")
		user           = flag.String("user", getEnv("DB_USER", "wastesort"), "Database user")
		password       = flag.String("password", getEnv("DB_PASSWORD", "wastesort_dev"), "Database password")
		dbName         = flag.String("name", getEnv("DB_NAME", "wastesort"), "Database name")
		dbPath         = flag.String("path", getEnv("DB_PATH", "./wastesort.db"), "SQLite database file")
		migrationsPath = flag.String("migrations", getEnv("MIGRATIONS_PATH", "./migrations"), "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	db, err := database.NewDB(database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *dbPath,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if *status {
		showStatus(db, *dbType, *migrationsPath)
		return
	}

	fmt.Printf("Running migrations from %s...\n", *migrationsPath)
	if err := db.RunMigrations(*migrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	fmt.Println("Migrations completed successfully!")
}

func showStatus(db *database.DB, dbType, migrationsPath string) {
	if dbType != "postgres" {
		fmt.Println("SQLite schema is created directly; there are no migrations to track.")
		return
	}

	migrator := database.NewMigrator(db.Conn(), dbType)

	if err := migrator.Initialize(); err != nil {
		log.Fatal("Failed to initialize migrator:", err)
	}
	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		log.Fatal("Failed to get applied migrations:", err)
	}
	migrations, err := migrator.LoadMigrations(migrationsPath)
	if err != nil {
		log.Fatal("Failed to load migrations:", err)
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, m := range migrations {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
