package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/lumina/internal/apperr"
)

// classify maps driver errors onto the apperr taxonomy:
// constraint violations are validation failures, missing rows are not-found,
// cancellation passes through untouched, and everything else is a backend
// failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("index: %s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("index: %s: %w", op, err)
	}

	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("index: %s: %w", op, apperr.Validation(err))
	}
	return apperr.Backend("index: "+op, err)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
