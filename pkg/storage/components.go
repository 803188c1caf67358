package storage

import (
	"context"
	"fmt"
)

// Component is a registered component together with its configurations
// when they were requested.
type Component struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	URI            string          `json:"uri,omitempty"`
	Configurations []Configuration `json:"configurations,omitempty"`
}

// Components lists components of a branch.
type Components struct {
	*endpoint
	branchID string
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (c *Components) WithMaxRetries(n int) *Components {
	return &Components{endpoint: c.withMaxRetries(n), branchID: c.branchID}
}

// List lists components that have configurations in the branch. include
// asks for extra attributes such as "configuration" or "rows".
func (c *Components) List(ctx context.Context, include ...string) ([]Component, error) {
	var out []Component
	if err := c.get(ctx, c.url("branch", c.branchID, "components"), includeQuery(include), &out); err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	return out, nil
}

// Detail returns one configuration of a component.
func (c *Components) Detail(ctx context.Context, componentID, configID string) (*Configuration, error) {
	if err := requireID("component_id", componentID); err != nil {
		return nil, err
	}
	if err := requireID("config_id", configID); err != nil {
		return nil, err
	}

	var out Configuration
	u := c.url("branch", c.branchID, "components", componentID, "configs", configID)
	if err := c.get(ctx, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get configuration %s of %s: %w", configID, componentID, err)
	}
	return &out, nil
}
