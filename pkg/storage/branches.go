package storage

import (
	"context"
	"fmt"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// Branch is a development branch, or the default (production) branch.
type Branch struct {
	ID          models.ID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	IsDefault   bool        `json:"isDefault"`
	Created     models.Time `json:"created"`
}

// Branches reads branches and their metadata.
type Branches struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (b *Branches) WithMaxRetries(n int) *Branches {
	return &Branches{endpoint: b.withMaxRetries(n)}
}

// Metadata lists the metadata of a branch. Use DefaultBranchID for the
// production branch.
func (b *Branches) Metadata(ctx context.Context, branchID string) ([]Metadata, error) {
	if err := requireID("branch_id", branchID); err != nil {
		return nil, err
	}

	var out []Metadata
	if err := b.get(ctx, b.url("branch", branchID, "metadata"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list metadata of branch %s: %w", branchID, err)
	}
	return out, nil
}

// Detail returns one branch.
func (b *Branches) Detail(ctx context.Context, branchID string) (*Branch, error) {
	if err := requireID("branch_id", branchID); err != nil {
		return nil, err
	}

	var out Branch
	if err := b.get(ctx, b.url("dev-branches", branchID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get branch %s: %w", branchID, err)
	}
	return &out, nil
}
