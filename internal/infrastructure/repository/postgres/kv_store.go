package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-pool/internal/domain/kv"
	qb "github.com/riskibarqy/prediction-pool/internal/platform/querybuilder"
	"github.com/riskibarqy/prediction-pool/internal/platform/resilience"
)

// KVStore keeps pool records in a single key/value table.
type KVStore struct {
	db      *sqlx.DB
	breaker *resilience.CircuitBreaker
	now     func() time.Time
}

// NewKVStore accepts a nil breaker, which disables circuit breaking.
func NewKVStore(db *sqlx.DB, breaker *resilience.CircuitBreaker) *KVStore {
	return &KVStore{
		db:      db,
		breaker: breaker,
		now:     time.Now,
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := qb.Select("value").From(kvTable).
		Where(qb.Eq("key", key)).
		ToSQL()
	if err != nil {
		return nil, false, crerr.Wrap(err, "build get kv query")
	}

	var value []byte
	err = s.breaker.Execute(func() error {
		return withStatementRetry(func() error {
			return s.db.GetContext(ctx, &value, query, args...)
		})
	}, isStoreFailure)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, unavailable(err, "get key %q", key)
	}
	return value, true, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	row := kvTableModel{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	query, args, err := qb.UpsertModel(kvTable, row, "key")
	if err != nil {
		return crerr.Wrap(err, "build put kv query")
	}

	err = s.breaker.Execute(func() error {
		return withStatementRetry(func() error {
			_, execErr := s.db.ExecContext(ctx, query, args...)
			return execErr
		})
	}, isStoreFailure)
	if err != nil {
		return unavailable(err, "put key %q", key)
	}
	return nil
}

func (s *KVStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	builder := qb.Select("key").From(kvTable).OrderBy("key")
	if prefix != "" {
		builder = builder.Where(qb.HasPrefix("key", prefix))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list kv keys query")
	}

	var keys []string
	err = s.breaker.Execute(func() error {
		return withStatementRetry(func() error {
			keys = keys[:0]
			return s.db.SelectContext(ctx, &keys, query, args...)
		})
	}, isStoreFailure)
	if err != nil {
		return nil, unavailable(err, "list keys prefix=%q", prefix)
	}
	return keys, nil
}

func unavailable(cause error, format string, args ...any) error {
	args = append(args, cause)
	err := crerr.Wrapf(kv.ErrUnavailable, format+": %v", args...)
	if isUndefinedTable(cause) {
		err = crerr.WithHint(err, "table "+kvTable+" is missing; run the migration command first")
	}
	return err
}
