package pgdb

import (
	"context"
	"testing"

	"github.com/DRSN-tech/tourism-backend/pkg/tr"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, pool.ExpectationsWereMet())
		pool.Close()
	})

	return pool
}

// txCtx открывает транзакцию на моке и кладёт её в контекст, как это делает usecase.
func txCtx(t *testing.T, pool pgxmock.PgxPoolIface) context.Context {
	t.Helper()

	pool.ExpectBegin()
	tx, err := pool.Begin(context.Background())
	require.NoError(t, err)

	return tr.WithTx(context.Background(), tx)
}
