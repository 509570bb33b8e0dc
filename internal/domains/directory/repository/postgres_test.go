package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyLookup(called *int) approverLookup {
	return func(ctx context.Context) (uuid.UUID, error) {
		*called++
		return uuid.Nil, pgx.ErrNoRows
	}
}

func hitLookup(id uuid.UUID, called *int) approverLookup {
	return func(ctx context.Context) (uuid.UUID, error) {
		*called++
		return id, nil
	}
}

func TestResolveApprover_StopsAtFirstHit(t *testing.T) {
	roleHolder := uuid.New()
	actor := uuid.New()
	var first, second int

	id, err := resolveApprover(context.Background(), []approverLookup{
		hitLookup(roleHolder, &first),
		hitLookup(uuid.New(), &second),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, roleHolder, id)
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second, "later tiers must not run once a tier resolves")
}

func TestResolveApprover_FallsThroughEmptyTiers(t *testing.T) {
	fallbackAdmin := uuid.New()
	actor := uuid.New()
	var role, tenantAdmin, anyAdmin int

	id, err := resolveApprover(context.Background(), []approverLookup{
		emptyLookup(&role),
		emptyLookup(&tenantAdmin),
		hitLookup(fallbackAdmin, &anyAdmin),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, fallbackAdmin, id)
	assert.Equal(t, 1, role)
	assert.Equal(t, 1, tenantAdmin)
	assert.Equal(t, 1, anyAdmin)
}

func TestResolveApprover_ActorIsTheLastResort(t *testing.T) {
	actor := uuid.New()
	var calls int

	id, err := resolveApprover(context.Background(), []approverLookup{
		emptyLookup(&calls),
		emptyLookup(&calls),
		emptyLookup(&calls),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, actor, id)
	assert.Equal(t, 3, calls, "every tier gets a chance before the actor")
}

func TestResolveApprover_AbortsOnLookupError(t *testing.T) {
	boom := errors.New("connection reset")

	_, err := resolveApprover(context.Background(), []approverLookup{
		func(ctx context.Context) (uuid.UUID, error) { return uuid.Nil, boom },
	}, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}
