package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// insertGetID runs an INSERT and returns the new row ID. PostgreSQL needs
// RETURNING, SQLite uses LastInsertId. The query is written with ? markers
// and rebound for the active driver.
func insertGetID(ctx context.Context, e sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	if e.DriverName() == "postgres" {
		var id int64
		err := sqlx.GetContext(ctx, e, &id, e.Rebind(query+" RETURNING id"), args...)
		return id, err
	}
	res, err := e.ExecContext(ctx, e.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
