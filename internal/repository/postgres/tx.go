package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type transaction interface {
	Commit() error
	Rollback() error
}

// txGuard owns one transaction. Call sites defer Rollback right after
// beginning and call Commit on success; Rollback after Commit is a no-op.
type txGuard[T transaction] struct {
	Tx   T
	done bool
}

func beginTx(ctx context.Context, db *sql.DB) (*txGuard[*sql.Tx], error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txGuard[*sql.Tx]{Tx: tx}, nil
}

func beginTxx(ctx context.Context, db *sqlx.DB) (*txGuard[*sqlx.Tx], error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txGuard[*sqlx.Tx]{Tx: tx}, nil
}

// Commit commits the transaction.
func (g *txGuard[T]) Commit() error {
	if g.done {
		return sql.ErrTxDone
	}
	g.done = true
	return g.Tx.Commit()
}

// Rollback aborts the transaction unless it was already committed.
func (g *txGuard[T]) Rollback() {
	if g.done {
		return
	}
	g.done = true
	_ = g.Tx.Rollback()
}
