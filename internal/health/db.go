package health

import (
	"context"
	"fmt"
)

// pinger is satisfied by *sql.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

// DBChecker implements health checking for SQL databases.
type DBChecker struct {
	db pinger
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db pinger) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}
