package storage

import (
	"context"
	"fmt"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// Metadata is one key/value metadata record attached to a table, column,
// bucket, branch or configuration.
type Metadata struct {
	ID        models.ID   `json:"id"`
	Key       string      `json:"key"`
	Value     string      `json:"value"`
	Provider  string      `json:"provider"`
	Timestamp models.Time `json:"timestamp"`
}

// MetadataEntry is a key/value pair to be written.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type tableMetadataRequest struct {
	Provider        string                     `json:"provider"`
	Metadata        []MetadataEntry            `json:"metadata,omitempty"`
	ColumnsMetadata map[string][]MetadataEntry `json:"columnsMetadata,omitempty"`
}

// TablesMetadata manages table and column metadata.
type TablesMetadata struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (m *TablesMetadata) WithMaxRetries(n int) *TablesMetadata {
	return &TablesMetadata{endpoint: m.withMaxRetries(n)}
}

// List lists the metadata of a table.
func (m *TablesMetadata) List(ctx context.Context, tableID string) ([]Metadata, error) {
	if err := requireID("table_id", tableID); err != nil {
		return nil, err
	}

	var out []Metadata
	if err := m.get(ctx, m.url("tables", tableID, "metadata"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list metadata of table %s: %w", tableID, err)
	}
	return out, nil
}

// Create writes table metadata and, keyed by column name, column metadata
// under provider. At least one entry is required.
func (m *TablesMetadata) Create(ctx context.Context, tableID, provider string, metadata []MetadataEntry, columns map[string][]MetadataEntry) ([]Metadata, error) {
	if err := requireID("table_id", tableID); err != nil {
		return nil, err
	}
	if err := requireID("provider", provider); err != nil {
		return nil, err
	}
	if len(metadata) == 0 && len(columns) == 0 {
		return nil, invalid("no metadata to write to table %s", tableID)
	}

	req := tableMetadataRequest{Provider: provider, Metadata: metadata, ColumnsMetadata: columns}
	var out []Metadata
	if err := m.postJSON(ctx, m.url("tables", tableID, "metadata"), req, &out); err != nil {
		return nil, fmt.Errorf("failed to write metadata of table %s: %w", tableID, err)
	}
	return out, nil
}

// Delete removes one metadata record from a table.
func (m *TablesMetadata) Delete(ctx context.Context, tableID, metadataID string) error {
	if err := requireID("table_id", tableID); err != nil {
		return err
	}
	if err := requireID("metadata_id", metadataID); err != nil {
		return err
	}

	if err := m.delete(ctx, m.url("tables", tableID, "metadata", metadataID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete metadata %s of table %s: %w", metadataID, tableID, err)
	}
	return nil
}
