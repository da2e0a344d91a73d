package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/tourism-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Querier — общий набор методов пула и транзакции.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB — пул соединений (*pgxpool.Pool или pgxmock в тестах).
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// conn возвращает транзакцию из контекста, а если её нет — пул.
func conn(ctx context.Context, db DB) Querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return db
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
