package storage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tenantID := uuid.New()
	refundID := uuid.New()

	key := ObjectKey(tenantID, refundID, "receipt.pdf")

	prefix := fmt.Sprintf("%s/%s/", tenantID, refundID)
	require.True(t, strings.HasPrefix(key, prefix), "key %s must be scoped to tenant and refund", key)
	assert.True(t, strings.HasSuffix(key, "_receipt.pdf"), "key %s must keep the original filename", key)

	// The unique infix prevents two uploads of the same filename colliding.
	other := ObjectKey(tenantID, refundID, "receipt.pdf")
	assert.NotEqual(t, key, other)
}
