package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/directory"
)

// =====================================================
// POSTGRES DIRECTORY
// =====================================================

type postgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(pool *pgxpool.Pool) directory.Directory {
	return &postgresDirectory{pool: pool}
}

type approverLookup func(ctx context.Context) (uuid.UUID, error)

// FindApproverByRole walks the fallback chain: requested role in the tenant,
// tenant admin, any active admin on the platform, then the acting user.
// Picks the least-loaded holder of a role so assignments spread across the
// team.
func (d *postgresDirectory) FindApproverByRole(ctx context.Context, tenantID uuid.UUID, role string, actor uuid.UUID) (uuid.UUID, error) {
	lookups := []approverLookup{
		func(ctx context.Context) (uuid.UUID, error) { return d.findByRole(ctx, tenantID, role) },
		func(ctx context.Context) (uuid.UUID, error) { return d.findByRole(ctx, tenantID, "admin") },
		d.findAnyAdmin,
	}
	return resolveApprover(ctx, lookups, actor)
}

// resolveApprover tries each tier in order, treating an empty result as a
// signal to fall through. Any other lookup error aborts the chain.
func resolveApprover(ctx context.Context, lookups []approverLookup, actor uuid.UUID) (uuid.UUID, error) {
	for _, lookup := range lookups {
		id, err := lookup(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}
	return actor, nil
}

func (d *postgresDirectory) findByRole(ctx context.Context, tenantID uuid.UUID, role string) (uuid.UUID, error) {
	query := `
		SELECT u.id
		FROM users u
		WHERE u.tenant_id = $1
		AND u.role = $2
		AND u.is_active = true
		ORDER BY (
			SELECT COUNT(*)
			FROM workflow_steps ws
			WHERE ws.assignee_id = u.id
			AND ws.decision IN ('pending', 'needs_info')
		) ASC
		LIMIT 1
	`

	var id uuid.UUID
	err := d.pool.QueryRow(ctx, query, tenantID, role).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to find approver by role: %w", err)
	}

	return id, nil
}

// findAnyAdmin drops the tenant filter; a platform admin can decide steps
// for a tenant whose own team has nobody available.
func (d *postgresDirectory) findAnyAdmin(ctx context.Context) (uuid.UUID, error) {
	query := `
		SELECT u.id
		FROM users u
		WHERE u.role = 'admin'
		AND u.is_active = true
		ORDER BY (
			SELECT COUNT(*)
			FROM workflow_steps ws
			WHERE ws.assignee_id = u.id
			AND ws.decision IN ('pending', 'needs_info')
		) ASC
		LIMIT 1
	`

	var id uuid.UUID
	err := d.pool.QueryRow(ctx, query).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to find fallback admin: %w", err)
	}

	return id, nil
}
