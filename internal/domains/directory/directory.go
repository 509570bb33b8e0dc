package directory

import (
	"context"

	"github.com/google/uuid"
)

// Directory resolves workflow assignees from the platform user store. The
// refund engine only reads it; account management lives elsewhere.
type Directory interface {
	// FindApproverByRole returns a user holding the role within the
	// tenant. Implementations apply the fallback chain: requested role,
	// tenant admin role, any tenant admin, and finally the acting user,
	// so workflow initialization never stalls on a missing role holder.
	FindApproverByRole(ctx context.Context, tenantID uuid.UUID, role string, actor uuid.UUID) (uuid.UUID, error)
}
