package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// ErrNotFound is returned when a targeted row does not exist.
var ErrNotFound = errors.New("row not found")

// InitDB opens the Supabase Postgres connection and installs the
// Postgres-backed store as the active one.
func InitDB() error {
	dbURL := os.Getenv("SUPABASE_DB_URL")
	if dbURL == "" {
		return fmt.Errorf("SUPABASE_DB_URL environment variable not set")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("error opening database: %v", err)
	}

	err = DB.Ping()
	if err != nil {
		return fmt.Errorf("error connecting to the database: %v", err)
	}

	Users = &PostgresStore{}

	log.Println("Successfully connected to Supabase database")
	return nil
}

// CloseDB closes the database connection
func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
