package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"mspro-labs/brew-map/internal/models"
)

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	lookupTable := `
	CREATE TABLE IF NOT EXISTS lookup (
	  id TEXT PRIMARY KEY,
	  address TEXT NOT NULL,
	  found INTEGER NOT NULL,
	  longitude REAL,
	  latitude REAL,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_lookup_address ON lookup(address);
	`
	if _, err := db.Exec(lookupTable); err != nil {
		return err
	}

	resultTable := `
	CREATE TABLE IF NOT EXISTS lookup_result (
	  lookup_id TEXT NOT NULL,
	  rank INTEGER NOT NULL,
	  name TEXT,
	  longitude REAL,
	  latitude REAL,
	  distance_km REAL,
	  PRIMARY KEY (lookup_id, rank),
	  FOREIGN KEY (lookup_id) REFERENCES lookup (id) ON DELETE CASCADE
	);
	`
	if _, err := db.Exec(resultTable); err != nil {
		return err
	}

	return nil
}

// SaveLookup stores a lookup and its ranked shops in one transaction.
// An empty ID is filled with a new UUID; the stored ID is returned.
func SaveLookup(db *sql.DB, l models.Lookup) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	var lon, lat sql.NullFloat64
	if l.Found {
		lon = sql.NullFloat64{Float64: l.Location.Longitude, Valid: true}
		lat = sql.NullFloat64{Float64: l.Location.Latitude, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO lookup (id, address, found, longitude, latitude, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Address, l.Found, lon, lat, l.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to insert lookup: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO lookup_result (lookup_id, rank, name, longitude, latitude, distance_km)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return "", err
	}
	defer stmt.Close()

	for i, shop := range l.Results {
		if _, err := stmt.ExecContext(ctx, l.ID, i+1, shop.Name, shop.Longitude, shop.Latitude, shop.DistanceKm); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to insert result %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return l.ID, nil
}

// ListLookups returns all recorded lookups with their results, newest first.
func ListLookups(db *sql.DB) ([]models.Lookup, error) {
	rows, err := db.Query(`
		SELECT id, address, found, longitude, latitude, created_at
		FROM lookup
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []models.Lookup
	for rows.Next() {
		var (
			l        models.Lookup
			lon, lat sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.Address, &l.Found, &lon, &lat, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Location = models.Location{Longitude: lon.Float64, Latitude: lat.Float64}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range lookups {
		results, err := getResults(db, lookups[i].ID)
		if err != nil {
			return nil, err
		}
		lookups[i].Results = results
	}
	return lookups, nil
}

func getResults(db *sql.DB, lookupID string) ([]models.RankedShop, error) {
	rows, err := db.Query(`
		SELECT name, longitude, latitude, distance_km
		FROM lookup_result
		WHERE lookup_id = ?
		ORDER BY rank
	`, lookupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.RankedShop
	for rows.Next() {
		var r models.RankedShop
		if err := rows.Scan(&r.Name, &r.Longitude, &r.Latitude, &r.DistanceKm); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ClearLookups removes every lookup for the given address.
func ClearLookups(db *sql.DB, address string) (int64, error) {
	return deleteLookups(db, `WHERE address = ?`, address)
}

// ClearAllLookups wipes the entire history.
func ClearAllLookups(db *sql.DB) (int64, error) {
	return deleteLookups(db, ``)
}

func deleteLookups(db *sql.DB, where string, args ...any) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM lookup_result WHERE lookup_id IN (SELECT id FROM lookup `+where+`)`, args...); err != nil {
		tx.Rollback()
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM lookup `+where, args...)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
