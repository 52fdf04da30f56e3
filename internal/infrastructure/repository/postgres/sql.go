package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

const pqUndefinedTable = "42P01"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isStoreFailure excludes outcomes that say nothing about store health.
func isStoreFailure(err error) bool {
	if err == nil || isNotFound(err) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// withStatementRetry reruns fn once when a pooler in transaction mode dropped
// the unnamed prepared statement between parse and bind.
func withStatementRetry(fn func() error) error {
	err := fn()
	if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
		return fn()
	}
	return err
}

func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "bind message supplies") && strings.Contains(text, "prepared statement")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	if strings.Contains(text, "unnamed prepared statement does not exist") {
		return true
	}
	return strings.Contains(text, "prepared statement") && strings.Contains(text, "(26000)")
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}
