package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// BaseRepository carries the querier a Postgres repository runs against.
// The querier is either the pool or an open transaction.
type BaseRepository struct {
	q      database.Querier
	logger *zap.Logger
}

// NewBaseRepository creates a base repository over q
func NewBaseRepository(q database.Querier, logger *zap.Logger) *BaseRepository {
	return &BaseRepository{q: q, logger: logger}
}

// IsNotFound checks if error is a "not found" error
func (r *BaseRepository) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// wrap annotates err with the failed operation and maps unique violations
// to ErrDuplicate
func (r *BaseRepository) wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectAffected turns a zero-row write into ErrNotFound
func (r *BaseRepository) expectAffected(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return r.wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// GetLogger returns the logger instance
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// paginate appends LIMIT/OFFSET placeholders starting at argIndex
func paginate(query string, params models.PaginationParams, argIndex int, args []interface{}) (string, []interface{}) {
	params = params.Normalize()
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	return query, append(args, params.Limit, params.Offset)
}
