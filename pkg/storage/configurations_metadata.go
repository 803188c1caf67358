package storage

import (
	"context"
	"fmt"
)

type configurationMetadataRequest struct {
	Metadata []MetadataEntry `json:"metadata"`
}

// ConfigurationsMetadata manages metadata of component configurations.
type ConfigurationsMetadata struct {
	*endpoint
	branchID string
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (m *ConfigurationsMetadata) WithMaxRetries(n int) *ConfigurationsMetadata {
	return &ConfigurationsMetadata{endpoint: m.withMaxRetries(n), branchID: m.branchID}
}

func (m *ConfigurationsMetadata) metadataURL(componentID, configID string, parts ...string) string {
	return m.url(append([]string{"branch", m.branchID, "components", componentID, "configs", configID, "metadata"}, parts...)...)
}

func requireConfig(componentID, configID string) error {
	if err := requireID("component_id", componentID); err != nil {
		return err
	}
	return requireID("config_id", configID)
}

// Detail returns the configuration the metadata belongs to.
func (m *ConfigurationsMetadata) Detail(ctx context.Context, componentID, configID string) (*Configuration, error) {
	if err := requireConfig(componentID, configID); err != nil {
		return nil, err
	}

	var out Configuration
	u := m.url("branch", m.branchID, "components", componentID, "configs", configID)
	if err := m.get(ctx, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get configuration %s of %s: %w", configID, componentID, err)
	}
	return &out, nil
}

// List lists the metadata of a configuration.
func (m *ConfigurationsMetadata) List(ctx context.Context, componentID, configID string) ([]Metadata, error) {
	if err := requireConfig(componentID, configID); err != nil {
		return nil, err
	}

	var out []Metadata
	if err := m.get(ctx, m.metadataURL(componentID, configID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list metadata of configuration %s: %w", configID, err)
	}
	return out, nil
}

// Create writes metadata entries to a configuration.
func (m *ConfigurationsMetadata) Create(ctx context.Context, componentID, configID string, metadata []MetadataEntry) ([]Metadata, error) {
	if err := requireConfig(componentID, configID); err != nil {
		return nil, err
	}
	if len(metadata) == 0 {
		return nil, invalid("no metadata to write to configuration %s", configID)
	}

	var out []Metadata
	req := configurationMetadataRequest{Metadata: metadata}
	if err := m.postJSON(ctx, m.metadataURL(componentID, configID), req, &out); err != nil {
		return nil, fmt.Errorf("failed to write metadata of configuration %s: %w", configID, err)
	}
	return out, nil
}

// Delete removes one metadata record from a configuration.
func (m *ConfigurationsMetadata) Delete(ctx context.Context, componentID, configID, metadataID string) error {
	if err := requireConfig(componentID, configID); err != nil {
		return err
	}
	if err := requireID("metadata_id", metadataID); err != nil {
		return err
	}

	if err := m.delete(ctx, m.metadataURL(componentID, configID, metadataID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete metadata %s of configuration %s: %w", metadataID, configID, err)
	}
	return nil
}
