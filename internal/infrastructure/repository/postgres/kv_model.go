package postgres

import "time"

const kvTable = "pool_kv"

type kvTableModel struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
