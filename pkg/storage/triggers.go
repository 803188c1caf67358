package storage

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// TriggerTable is a table watched by a trigger.
type TriggerTable struct {
	TableID string `json:"tableId"`
}

// Trigger runs a component configuration after its tables are imported.
type Trigger struct {
	ID                    models.ID      `json:"id"`
	RunWithTokenID        models.ID      `json:"runWithTokenId"`
	Component             string         `json:"component"`
	ConfigurationID       models.ID      `json:"configurationId"`
	CoolDownPeriodMinutes int            `json:"coolDownPeriodMinutes"`
	LastRun               models.Time    `json:"lastRun"`
	Tables                []TriggerTable `json:"tables,omitempty"`
}

// CreateTriggerRequest describes a new trigger.
type CreateTriggerRequest struct {
	RunWithTokenID        int64    `json:"runWithTokenId"`
	Component             string   `json:"component"`
	ConfigurationID       int64    `json:"configurationId"`
	CoolDownPeriodMinutes int      `json:"coolDownPeriodMinutes"`
	TableIDs              []string `json:"tableIds"`
}

// Validate checks the request before it is sent.
func (r CreateTriggerRequest) Validate() error {
	return validateStruct(&r,
		validation.Field(&r.RunWithTokenID, validation.Required),
		validation.Field(&r.Component, validation.Required),
		validation.Field(&r.ConfigurationID, validation.Required),
		validation.Field(&r.CoolDownPeriodMinutes, validation.Min(1)),
		validation.Field(&r.TableIDs, validation.Required),
	)
}

// UpdateTriggerRequest changes the fields that are set.
type UpdateTriggerRequest struct {
	RunWithTokenID        *int64   `form:"runWithTokenId"`
	Component             *string  `form:"component"`
	ConfigurationID       *int64   `form:"configurationId"`
	CoolDownPeriodMinutes *int     `form:"coolDownPeriodMinutes"`
	TableIDs              []string `form:"tableIds,omitempty"`
}

// Triggers manages table import triggers.
type Triggers struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (t *Triggers) WithMaxRetries(n int) *Triggers {
	return &Triggers{endpoint: t.withMaxRetries(n)}
}

// List lists the triggers of the project.
func (t *Triggers) List(ctx context.Context) ([]Trigger, error) {
	var out []Trigger
	if err := t.get(ctx, t.url("triggers"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	return out, nil
}

// Detail returns one trigger.
func (t *Triggers) Detail(ctx context.Context, triggerID string) (*Trigger, error) {
	if err := requireID("trigger_id", triggerID); err != nil {
		return nil, err
	}

	var out Trigger
	if err := t.get(ctx, t.url("triggers", triggerID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get trigger %s: %w", triggerID, err)
	}
	return &out, nil
}

// Create creates a trigger.
func (t *Triggers) Create(ctx context.Context, req CreateTriggerRequest) (*Trigger, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out Trigger
	if err := t.postJSON(ctx, t.url("triggers"), req, &out); err != nil {
		return nil, fmt.Errorf("failed to create trigger: %w", err)
	}
	return &out, nil
}

// Update changes a trigger. Unset fields are left as they are.
func (t *Triggers) Update(ctx context.Context, triggerID string, req UpdateTriggerRequest) (*Trigger, error) {
	if err := requireID("trigger_id", triggerID); err != nil {
		return nil, err
	}

	var out Trigger
	if err := t.putForm(ctx, t.url("triggers", triggerID), encodeForm(req), &out); err != nil {
		return nil, fmt.Errorf("failed to update trigger %s: %w", triggerID, err)
	}
	return &out, nil
}

// Delete deletes a trigger.
func (t *Triggers) Delete(ctx context.Context, triggerID string) error {
	if err := requireID("trigger_id", triggerID); err != nil {
		return err
	}

	if err := t.delete(ctx, t.url("triggers", triggerID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete trigger %s: %w", triggerID, err)
	}
	return nil
}
