package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/models"
)

// fileImportTag marks files uploaded only to be imported into a table.
const fileImportTag = "file-import"

// Table is a Storage API table.
type Table struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	DisplayName    string      `json:"displayName,omitempty"`
	URI            string      `json:"uri,omitempty"`
	PrimaryKey     []string    `json:"primaryKey"`
	Columns        []string    `json:"columns,omitempty"`
	RowsCount      int64       `json:"rowsCount,omitempty"`
	DataSizeBytes  int64       `json:"dataSizeBytes,omitempty"`
	IsAlias        bool        `json:"isAlias,omitempty"`
	Created        models.Time `json:"created"`
	LastImportDate models.Time `json:"lastImportDate"`
	LastChangeDate models.Time `json:"lastChangeDate"`
	Bucket         *Bucket     `json:"bucket,omitempty"`
	Metadata       []Metadata  `json:"metadata,omitempty"`
}

// CSVOptions describe the CSV dialect of imported data. Empty fields are
// left to the API defaults: comma delimiter and double quote enclosure.
// Enclosure and EscapedBy are mutually exclusive.
type CSVOptions struct {
	Delimiter string `form:"delimiter,omitempty"`
	Enclosure string `form:"enclosure,omitempty"`
	EscapedBy string `form:"escapedBy,omitempty"`
}

// Validate checks the dialect.
func (o CSVOptions) Validate() error {
	if o.Enclosure != "" && o.EscapedBy != "" {
		return invalid("only one of enclosure and escaped_by may be specified")
	}
	return nil
}

// DataSource names where the API reads table data from. Exactly one source
// must be set; a workspace source needs both the workspace and table name.
type DataSource struct {
	DataURL         string `form:"dataUrl,omitempty"`
	DataFileID      int64  `form:"dataFileId,omitempty"`
	SnapshotID      int64  `form:"snapshotId,omitempty"`
	DataWorkspaceID string `form:"dataWorkspaceId,omitempty"`
	DataTableName   string `form:"dataTableName,omitempty"`
}

// ValidateDataSource checks that exactly one source is set and returns its
// form fields.
func ValidateDataSource(ds DataSource) (url.Values, error) {
	set := 0
	if ds.DataURL != "" {
		set++
	}
	if ds.DataFileID != 0 {
		set++
	}
	if ds.SnapshotID != 0 {
		set++
	}
	if ds.DataWorkspaceID != "" && ds.DataTableName != "" {
		set++
	} else if ds.DataWorkspaceID != "" || ds.DataTableName != "" {
		return nil, invalid("data_workspace_id and data_table_name must be specified together")
	}

	switch set {
	case 0:
		return nil, invalid("one of data_url, data_file_id, snapshot_id, data_workspace_id must be specified")
	case 1:
		return encodeForm(ds), nil
	default:
		return nil, invalid("only one of data_url, data_file_id, snapshot_id, data_workspace_id may be specified")
	}
}

// CreateTableRequest creates a table from an existing data source.
type CreateTableRequest struct {
	Name       string
	Source     DataSource
	CSV        CSVOptions
	PrimaryKey []string
}

// LoadOptions control an import into an existing table.
type LoadOptions struct {
	CSV            CSVOptions
	Incremental    bool
	WithoutHeaders bool
	Columns        []string
}

type loadForm struct {
	CSVOptions
	Incremental    bool     `form:"incremental"`
	WithoutHeaders bool     `form:"withoutHeaders"`
	Columns        []string `form:"columns,omitempty"`
}

// ExportOptions filter an asynchronous table export.
type ExportOptions struct {
	Columns       []string `form:"columns,omitempty"`
	Limit         int      `form:"limit,omitempty"`
	ChangedSince  string   `form:"changedSince,omitempty"`
	ChangedUntil  string   `form:"changedUntil,omitempty"`
	WhereColumn   string   `form:"whereColumn,omitempty"`
	WhereValues   []string `form:"whereValues,omitempty"`
	WhereOperator string   `form:"whereOperator,omitempty"`
	Format        string   `form:"format,omitempty"`
	Gzip          bool     `form:"gzip,omitempty"`
}

// PreviewOptions limit a table preview.
type PreviewOptions struct {
	Limit        int
	Columns      []string
	ChangedSince string
	WhereColumn  string
	WhereValues  []string
}

// ColumnDefinition is the typed definition of one column.
type ColumnDefinition struct {
	Type     string `json:"type"`
	Length   string `json:"length,omitempty"`
	Nullable *bool  `json:"nullable,omitempty"`
	Default  string `json:"default,omitempty"`
}

// Column is a named column with its definition.
type Column struct {
	Name       string           `json:"name"`
	Definition ColumnDefinition `json:"definition"`
}

// TableDefinition creates a typed table.
type TableDefinition struct {
	Name             string         `json:"name"`
	PrimaryKeysNames []string       `json:"primaryKeysNames"`
	Columns          []Column       `json:"columns"`
	Distribution     map[string]any `json:"distribution,omitempty"`
	Index            map[string]any `json:"index,omitempty"`
}

// Validate checks the definition before it is sent.
func (d TableDefinition) Validate() error {
	return validateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Columns, validation.Required),
	)
}

// Tables manages tables.
type Tables struct {
	*endpoint
	files *Files
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (t *Tables) WithMaxRetries(n int) *Tables {
	ep := t.withMaxRetries(n)
	return &Tables{endpoint: ep, files: t.files.withEndpoint(ep)}
}

// List lists all tables in the project.
func (t *Tables) List(ctx context.Context, include ...string) ([]Table, error) {
	var out []Table
	if err := t.get(ctx, t.url("tables"), includeQuery(include), &out); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return out, nil
}

// ListBucket lists the tables of one bucket.
func (t *Tables) ListBucket(ctx context.Context, bucketID string, include ...string) ([]Table, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return nil, err
	}

	var out []Table
	if err := t.get(ctx, t.url("buckets", bucketID, "tables"), includeQuery(include), &out); err != nil {
		return nil, fmt.Errorf("failed to list tables of bucket %s: %w", bucketID, err)
	}
	return out, nil
}

// Detail returns one table.
func (t *Tables) Detail(ctx context.Context, tableID string) (*Table, error) {
	if err := requireID("table_id", tableID); err != nil {
		return nil, err
	}

	var out Table
	if err := t.get(ctx, t.url("tables", tableID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableID, err)
	}
	return &out, nil
}

// Delete deletes a table.
func (t *Tables) Delete(ctx context.Context, tableID string) error {
	if err := requireID("table_id", tableID); err != nil {
		return err
	}

	if err := t.delete(ctx, t.url("tables", tableID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableID, err)
	}
	return nil
}

// Create uploads a local CSV file and creates a table from it. It returns
// the id of the new table.
func (t *Tables) Create(ctx context.Context, bucketID, name, path string, csv CSVOptions, primaryKey ...string) (string, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return "", err
	}
	if err := requireID("name", name); err != nil {
		return "", err
	}
	if err := csv.Validate(); err != nil {
		return "", err
	}

	fileID, err := t.files.UploadFile(ctx, path, UploadOptions{Tags: []string{fileImportTag}, Encrypted: true})
	if err != nil {
		return "", err
	}

	handle, err := t.CreateRaw(ctx, bucketID, CreateTableRequest{
		Name:       name,
		Source:     DataSource{DataFileID: fileID},
		CSV:        csv,
		PrimaryKey: primaryKey,
	})
	if err != nil {
		return "", err
	}

	job, err := t.await(ctx, "create table "+bucketID+"."+name, handle)
	if err != nil {
		return "", err
	}

	var results struct {
		ID string `json:"id"`
	}
	if err := job.DecodeResults(&results); err != nil {
		return "", err
	}
	return results.ID, nil
}

// CreateRaw starts an asynchronous table creation from req.Source and
// returns the job handle.
func (t *Tables) CreateRaw(ctx context.Context, bucketID string, req CreateTableRequest) (*jobs.Job, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return nil, err
	}
	if err := requireID("name", req.Name); err != nil {
		return nil, err
	}
	if err := req.CSV.Validate(); err != nil {
		return nil, err
	}
	form, err := ValidateDataSource(req.Source)
	if err != nil {
		return nil, err
	}

	form.Set("name", req.Name)
	mergeForm(form, encodeForm(req.CSV))
	for _, pk := range req.PrimaryKey {
		form.Add("primaryKey[]", pk)
	}

	handle, err := t.postJob(ctx, t.url("buckets", bucketID, "tables-async"), form)
	if err != nil {
		return nil, fmt.Errorf("failed to create table %s in bucket %s: %w", req.Name, bucketID, err)
	}
	return handle, nil
}

// CreateDefinition creates a typed table and waits for the job. The
// terminal job is returned whether it succeeded or not.
func (t *Tables) CreateDefinition(ctx context.Context, bucketID string, def TableDefinition) (*jobs.Job, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var handle jobs.Job
	if err := t.postJSON(ctx, t.url("buckets", bucketID, "tables-definition"), def, &handle); err != nil {
		return nil, fmt.Errorf("failed to create table definition %s in bucket %s: %w", def.Name, bucketID, err)
	}

	return t.poller.BlockUntilCompleted(ctx, handle.ID)
}

// Load uploads a local CSV file and imports it into an existing table. It
// returns the import job results.
func (t *Tables) Load(ctx context.Context, tableID, path string, opts LoadOptions) (models.JSON, error) {
	if err := requireID("table_id", tableID); err != nil {
		return nil, err
	}
	if err := opts.CSV.Validate(); err != nil {
		return nil, err
	}

	fileID, err := t.files.UploadFile(ctx, path, UploadOptions{Tags: []string{fileImportTag}, Encrypted: true})
	if err != nil {
		return nil, err
	}

	handle, err := t.LoadRaw(ctx, tableID, DataSource{DataFileID: fileID}, opts)
	if err != nil {
		return nil, err
	}

	job, err := t.await(ctx, "load table "+tableID, handle)
	if err != nil {
		return nil, err
	}
	return job.Results, nil
}

// LoadRaw starts an asynchronous import from source into a table and
// returns the job handle.
func (t *Tables) LoadRaw(ctx context.Context, tableID string, source DataSource, opts LoadOptions) (*jobs.Job, error) {
	if err := requireID("table_id", tableID); err != nil {
		return nil, err
	}
	if err := opts.CSV.Validate(); err != nil {
		return nil, err
	}
	form, err := ValidateDataSource(source)
	if err != nil {
		return nil, err
	}

	mergeForm(form, encodeForm(loadForm{
		CSVOptions:     opts.CSV,
		Incremental:    opts.Incremental,
		WithoutHeaders: opts.WithoutHeaders,
		Columns:        opts.Columns,
	}))

	handle, err := t.postJob(ctx, t.url("tables", tableID, "import-async"), form)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", tableID, err)
	}
	return handle, nil
}

// Preview returns up to opts.Limit rows of a table as CSV text.
func (t *Tables) Preview(ctx context.Context, tableID string, opts PreviewOptions) (string, error) {
	if err := requireID("table_id", tableID); err != nil {
		return "", err
	}

	query := url.Values{"format": {"rfc"}}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(opts.Columns) > 0 {
		query.Set("columns", strings.Join(opts.Columns, ","))
	}
	if opts.ChangedSince != "" {
		query.Set("changedSince", opts.ChangedSince)
	}
	if opts.WhereColumn != "" {
		query.Set("whereColumn", opts.WhereColumn)
		for _, v := range opts.WhereValues {
			query.Add("whereValues[]", v)
		}
	}

	body, err := t.getRaw(ctx, t.url("tables", tableID, "data-preview"), query)
	if err != nil {
		return "", fmt.Errorf("failed to preview table %s: %w", tableID, err)
	}
	return string(body), nil
}

// Export exports a table to a file and returns the file id.
func (t *Tables) Export(ctx context.Context, tableID string, opts ExportOptions) (int64, error) {
	if err := requireID("table_id", tableID); err != nil {
		return 0, err
	}

	handle, err := t.postJob(ctx, t.url("tables", tableID, "export-async"), encodeForm(opts))
	if err != nil {
		return 0, fmt.Errorf("failed to export table %s: %w", tableID, err)
	}

	job, err := t.await(ctx, "export table "+tableID, handle)
	if err != nil {
		return 0, err
	}

	var results struct {
		File struct {
			ID int64 `json:"id"`
		} `json:"file"`
	}
	if err := job.DecodeResults(&results); err != nil {
		return 0, err
	}
	if results.File.ID == 0 {
		return 0, fmt.Errorf("export of table %s returned no file", tableID)
	}
	return results.File.ID, nil
}

// ExportToFile exports a table and downloads the result into dir. It
// returns the path of the local file.
func (t *Tables) ExportToFile(ctx context.Context, tableID, dir string, opts ExportOptions) (string, error) {
	fileID, err := t.Export(ctx, tableID, opts)
	if err != nil {
		return "", err
	}
	return t.files.Download(ctx, fileID, dir)
}

func mergeForm(dst, src url.Values) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
