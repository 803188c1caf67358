package storage

import (
	"context"
	"fmt"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// TokenOwner is the project a token belongs to.
type TokenOwner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Token describes a Storage API token.
type Token struct {
	ID                    models.ID         `json:"id"`
	Description           string            `json:"description"`
	IsMasterToken         bool              `json:"isMasterToken"`
	CanManageBuckets      bool              `json:"canManageBuckets"`
	CanReadAllFileUploads bool              `json:"canReadAllFileUploads"`
	BucketPermissions     map[string]string `json:"bucketPermissions,omitempty"`
	Owner                 TokenOwner        `json:"owner"`
	Created               models.Time       `json:"created"`
	Expires               models.Time       `json:"expires"`
}

// Tokens inspects tokens.
type Tokens struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (t *Tokens) WithMaxRetries(n int) *Tokens {
	return &Tokens{endpoint: t.withMaxRetries(n)}
}

// Verify returns the token the client authenticates with.
func (t *Tokens) Verify(ctx context.Context) (*Token, error) {
	var out Token
	if err := t.get(ctx, t.url("tokens", "verify"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return &out, nil
}
