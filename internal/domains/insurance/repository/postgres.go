package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/insurance/model"
)

// =====================================================
// INSURANCE FUND REPOSITORY IMPLEMENTATION
// =====================================================

type fundRepository struct {
	pool *pgxpool.Pool
}

func NewFundRepository(pool *pgxpool.Pool) FundRepoInterface {
	return &fundRepository{pool: pool}
}

const entryColumns = `
	id, tenant_id, entry_type, amount, balance_before, balance_after,
	refund_id, transaction_id, description, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.FundEntry, error) {
	entry := &model.FundEntry{}

	err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.EntryType,
		&entry.Amount,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.RefundID,
		&entry.TransactionID,
		&entry.Description,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *fundRepository) BalanceForUpdateWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) (int64, error) {
	// The upsert takes a row lock either way, so two writers on the same
	// tenant queue behind each other.
	query := `
		INSERT INTO insurance_funds (tenant_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (tenant_id)
		DO UPDATE SET balance = insurance_funds.balance
		RETURNING balance
	`

	var balance int64
	if err := tx.QueryRow(ctx, query, tenantID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to lock insurance fund balance: %w", err)
	}

	return balance, nil
}

func (r *fundRepository) SetBalanceWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, balance int64) error {
	query := `
		UPDATE insurance_funds
		SET balance = $2,
			updated_at = NOW()
		WHERE tenant_id = $1
	`

	if _, err := tx.Exec(ctx, query, tenantID, balance); err != nil {
		return fmt.Errorf("failed to update insurance fund balance: %w", err)
	}

	return nil
}

func (r *fundRepository) InsertEntryWithTx(ctx context.Context, tx pgx.Tx, entry *model.FundEntry) error {
	query := `
		INSERT INTO insurance_fund_transactions (
			id, tenant_id, entry_type, amount, balance_before, balance_after,
			refund_id, transaction_id, description
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.EntryType,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.RefundID,
		entry.TransactionID,
		entry.Description,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert fund ledger entry: %w", err)
	}

	return nil
}

func (r *fundRepository) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT balance FROM insurance_funds WHERE tenant_id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get insurance fund balance: %w", err)
	}

	return balance, nil
}

func (r *fundRepository) ListEntries(ctx context.Context, tenantID uuid.UUID, q model.ListEntriesQuery) ([]*model.FundEntry, int, error) {
	query := `SELECT` + entryColumns + `
		FROM insurance_fund_transactions
		WHERE tenant_id = $1
	`

	args := []interface{}{tenantID}
	argIndex := 2

	if q.EntryType != "" {
		query += fmt.Sprintf(" AND entry_type = $%d", argIndex)
		args = append(args, q.EntryType)
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count fund ledger entries: %w", err)
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fund ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.FundEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan fund ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

func (r *fundRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*model.FundStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'contribution'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'withdrawal'), 0),
			COUNT(*) FILTER (WHERE entry_type = 'contribution'),
			COUNT(*) FILTER (WHERE entry_type = 'withdrawal')
		FROM insurance_fund_transactions
		WHERE tenant_id = $1
	`

	stats := &model.FundStats{}
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&stats.TotalContributions,
		&stats.TotalWithdrawals,
		&stats.ContributionCount,
		&stats.WithdrawalCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fund ledger: %w", err)
	}

	balance, err := r.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats.Balance = balance
	stats.LowBalance = balance < model.LowBalanceThreshold

	return stats, nil
}
