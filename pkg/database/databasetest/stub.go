// Package databasetest provides inert transaction doubles for exercising
// service code that runs inside database.WithTransaction. The stub
// transaction never touches a connection; repositories under test are
// expected to be fakes that ignore the tx handle.
package databasetest

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ pgx.Tx = (*stubTx)(nil)

// Beginner implements database.TxBeginner and hands out stub transactions.
type Beginner struct {
	BeginErr error

	Began      int
	Committed  int
	RolledBack int
}

func (b *Beginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	b.Began++
	return &stubTx{beginner: b}, nil
}

type stubTx struct {
	beginner *Beginner
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return t, nil
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.beginner.Committed++
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.beginner.RolledBack++
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("databasetest: CopyFrom not supported")
}

func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (t *stubTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("databasetest: Prepare not supported")
}

func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("databasetest: Exec not supported")
}

func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("databasetest: Query not supported")
}

func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (t *stubTx) Conn() *pgx.Conn {
	return nil
}

type errRow struct{}

func (errRow) Scan(dest ...any) error {
	return errors.New("databasetest: QueryRow not supported")
}
