package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/models"
)

// WorkspaceConnection holds the credentials of a workspace.
type WorkspaceConnection struct {
	Backend          string `json:"backend"`
	Host             string `json:"host,omitempty"`
	Database         string `json:"database,omitempty"`
	Schema           string `json:"schema,omitempty"`
	Warehouse        string `json:"warehouse,omitempty"`
	User             string `json:"user,omitempty"`
	Password         string `json:"password,omitempty"`
	Container        string `json:"container,omitempty"`
	ConnectionString string `json:"connectionString,omitempty"`
	Region           string `json:"region,omitempty"`
}

// Workspace is a sandboxed database schema or blob container.
type Workspace struct {
	ID                      models.ID           `json:"id"`
	Type                    string              `json:"type,omitempty"`
	Name                    string              `json:"name,omitempty"`
	Component               string              `json:"component,omitempty"`
	ConfigurationID         string              `json:"configurationId,omitempty"`
	StatementTimeoutSeconds int                 `json:"statementTimeoutSeconds,omitempty"`
	Created                 models.Time         `json:"created"`
	Connection              WorkspaceConnection `json:"connection"`
}

// CreateWorkspaceOptions describe a new workspace.
type CreateWorkspaceOptions struct {
	Backend                 string `form:"backend,omitempty"`
	StatementTimeoutSeconds int    `form:"statementTimeoutSeconds,omitempty"`
}

// FileMapping selects files by tag for loading into a file workspace.
type FileMapping struct {
	Tags []string
	// Operator "and" requires every tag; anything else matches any tag.
	Operator    string
	Destination string
}

// Workspaces manages workspaces.
type Workspaces struct {
	*endpoint
	files *Files
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (w *Workspaces) WithMaxRetries(n int) *Workspaces {
	ep := w.withMaxRetries(n)
	return &Workspaces{endpoint: ep, files: w.files.withEndpoint(ep)}
}

// List lists workspaces.
func (w *Workspaces) List(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := w.get(ctx, w.url("workspaces"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return out, nil
}

// Detail returns one workspace.
func (w *Workspaces) Detail(ctx context.Context, workspaceID string) (*Workspace, error) {
	if err := requireID("workspace_id", workspaceID); err != nil {
		return nil, err
	}

	var out Workspace
	if err := w.get(ctx, w.url("workspaces", workspaceID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get workspace %s: %w", workspaceID, err)
	}
	return &out, nil
}

// Create creates a workspace.
func (w *Workspaces) Create(ctx context.Context, opts CreateWorkspaceOptions) (*Workspace, error) {
	var out Workspace
	if err := w.postForm(ctx, w.url("workspaces"), encodeForm(opts), &out); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &out, nil
}

// Delete deletes a workspace.
func (w *Workspaces) Delete(ctx context.Context, workspaceID string) error {
	if err := requireID("workspace_id", workspaceID); err != nil {
		return err
	}

	if err := w.delete(ctx, w.url("workspaces", workspaceID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete workspace %s: %w", workspaceID, err)
	}
	return nil
}

// ResetPassword issues a new password and returns the updated connection.
func (w *Workspaces) ResetPassword(ctx context.Context, workspaceID string) (*WorkspaceConnection, error) {
	if err := requireID("workspace_id", workspaceID); err != nil {
		return nil, err
	}

	var out WorkspaceConnection
	if err := w.postForm(ctx, w.url("workspaces", workspaceID, "password"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to reset password of workspace %s: %w", workspaceID, err)
	}
	return &out, nil
}

// LoadTables copies tables into a workspace. mapping maps source table ids to
// destination table names. The load runs asynchronously; the job handle is
// returned.
func (w *Workspaces) LoadTables(ctx context.Context, workspaceID string, mapping map[string]string, preserve bool) (*jobs.Job, error) {
	if err := requireID("workspace_id", workspaceID); err != nil {
		return nil, err
	}
	if len(mapping) == 0 {
		return nil, invalid("table mapping must not be empty")
	}

	sources := make([]string, 0, len(mapping))
	for src := range mapping {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	inputs := make([]loadInput, 0, len(sources))
	for _, src := range sources {
		inputs = append(inputs, loadInput{key: "source", source: src, destination: mapping[src]})
	}

	handle, err := w.postJob(ctx, w.url("workspaces", workspaceID, "load"), workspaceLoadForm(inputs, preserve))
	if err != nil {
		return nil, fmt.Errorf("failed to load tables into workspace %s: %w", workspaceID, err)
	}
	return handle, nil
}

// LoadFiles loads the files matching mapping into a file workspace, one job
// per file, and waits for all of them.
func (w *Workspaces) LoadFiles(ctx context.Context, workspaceID string, mapping FileMapping) error {
	ws, err := w.Detail(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.Type != "file" && ws.Connection.Backend != "abs" {
		return invalid("Loading files to workspace is only available for ABS workspaces")
	}

	opts := ListFilesOptions{Tags: mapping.Tags}
	if strings.EqualFold(mapping.Operator, "and") {
		clauses := make([]string, 0, len(mapping.Tags))
		for _, tag := range mapping.Tags {
			clauses = append(clauses, fmt.Sprintf("tags:%q", tag))
		}
		opts = ListFilesOptions{Query: strings.Join(clauses, " AND ")}
	}

	files, err := w.files.List(ctx, opts)
	if err != nil {
		return err
	}

	handles := make([]*jobs.Job, 0, len(files))
	for _, file := range files {
		form := workspaceLoadForm([]loadInput{{
			key:         "dataFileId",
			source:      strconv.FormatInt(file.ID, 10),
			destination: mapping.Destination + "/" + file.Name,
		}}, true)

		handle, err := w.postJob(ctx, w.url("workspaces", ws.ID.String(), "load"), form)
		if err != nil {
			return fmt.Errorf("failed to load file %d into workspace %s: %w", file.ID, workspaceID, err)
		}
		handles = append(handles, handle)
	}

	var result *multierror.Error
	for _, handle := range handles {
		if _, err := w.await(ctx, "load file into workspace "+workspaceID, handle); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type loadInput struct {
	key         string
	source      string
	destination string
}

// workspaceLoadForm renders input[i][key] / input[i][destination] pairs.
func workspaceLoadForm(inputs []loadInput, preserve bool) map[string][]string {
	form := map[string][]string{}
	for i, in := range inputs {
		form[fmt.Sprintf("input[%d][%s]", i, in.key)] = []string{in.source}
		form[fmt.Sprintf("input[%d][destination]", i)] = []string{in.destination}
	}
	if preserve {
		form["preserve"] = []string{"1"}
	} else {
		form["preserve"] = []string{"0"}
	}
	return form
}
