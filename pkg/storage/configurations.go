package storage

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// Configuration is a component configuration.
type Configuration struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description,omitempty"`
	Version           int         `json:"version,omitempty"`
	IsDisabled        bool        `json:"isDisabled,omitempty"`
	IsDeleted         bool        `json:"isDeleted,omitempty"`
	ChangeDescription string      `json:"changeDescription,omitempty"`
	Created           models.Time `json:"created"`
	Configuration     models.JSON `json:"configuration,omitempty"`
	State             models.JSON `json:"state,omitempty"`
	Rows              models.JSON `json:"rows,omitempty"`
}

// CreateConfigurationOptions describe a new configuration. Configuration
// and State are sent JSON encoded.
type CreateConfigurationOptions struct {
	Name              string
	Description       string
	Configuration     any
	State             any
	ChangeDescription string
	IsDisabled        bool
	// ConfigurationID chooses the id; the API generates one when empty.
	ConfigurationID string
}

// Validate checks the options before they are sent.
func (o CreateConfigurationOptions) Validate() error {
	return validateStruct(&o, validation.Field(&o.Name, validation.Required))
}

type configurationForm struct {
	Name              string `form:"name"`
	Description       string `form:"description"`
	Configuration     string `form:"configuration,omitempty"`
	State             string `form:"state,omitempty"`
	ChangeDescription string `form:"changeDescription,omitempty"`
	IsDisabled        bool   `form:"isDisabled"`
	ConfigurationID   string `form:"configurationId,omitempty"`
}

// Configurations manages component configurations of a branch.
type Configurations struct {
	*endpoint
	branchID string
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (c *Configurations) WithMaxRetries(n int) *Configurations {
	return &Configurations{endpoint: c.withMaxRetries(n), branchID: c.branchID}
}

func (c *Configurations) configsURL(componentID string, parts ...string) string {
	return c.url(append([]string{"branch", c.branchID, "components", componentID, "configs"}, parts...)...)
}

// List lists the configurations of a component.
func (c *Configurations) List(ctx context.Context, componentID string) ([]Configuration, error) {
	if err := requireID("component_id", componentID); err != nil {
		return nil, err
	}

	var out []Configuration
	if err := c.get(ctx, c.configsURL(componentID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list configurations of %s: %w", componentID, err)
	}
	return out, nil
}

// Detail returns one configuration.
func (c *Configurations) Detail(ctx context.Context, componentID, configID string) (*Configuration, error) {
	if err := requireID("component_id", componentID); err != nil {
		return nil, err
	}
	if err := requireID("config_id", configID); err != nil {
		return nil, err
	}

	var out Configuration
	if err := c.get(ctx, c.configsURL(componentID, configID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get configuration %s of %s: %w", configID, componentID, err)
	}
	return &out, nil
}

// Create creates a configuration of a component.
func (c *Configurations) Create(ctx context.Context, componentID string, opts CreateConfigurationOptions) (*Configuration, error) {
	if err := requireID("component_id", componentID); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	form := configurationForm{
		Name:              opts.Name,
		Description:       opts.Description,
		ChangeDescription: opts.ChangeDescription,
		IsDisabled:        opts.IsDisabled,
		ConfigurationID:   opts.ConfigurationID,
	}
	var err error
	if form.Configuration, err = encodeJSONField("configuration", opts.Configuration); err != nil {
		return nil, err
	}
	if form.State, err = encodeJSONField("state", opts.State); err != nil {
		return nil, err
	}

	var out Configuration
	if err := c.postForm(ctx, c.configsURL(componentID), encodeForm(form), &out); err != nil {
		return nil, fmt.Errorf("failed to create configuration %s of %s: %w", opts.Name, componentID, err)
	}
	return &out, nil
}

// Delete deletes a configuration. Deleting it a second time purges it.
func (c *Configurations) Delete(ctx context.Context, componentID, configID string) error {
	if err := requireID("component_id", componentID); err != nil {
		return err
	}
	if err := requireID("config_id", configID); err != nil {
		return err
	}

	if err := c.delete(ctx, c.configsURL(componentID, configID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete configuration %s of %s: %w", configID, componentID, err)
	}
	return nil
}

func encodeJSONField(name string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", invalid("%s is not JSON serializable: %v", name, err)
	}
	return string(b), nil
}
