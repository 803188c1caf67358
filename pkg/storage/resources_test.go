package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
)

func TestJobs_DetailAndWait(t *testing.T) {
	env := newTestEnv(t)
	env.api.sequence("GET /v2/storage/jobs/70",
		map[string]any{"id": "70", "status": "waiting", "operationName": "tableExport"},
		map[string]any{"id": "70", "status": "success", "operationName": "tableExport"},
	)
	ctx := context.Background()

	job, err := env.client.Jobs.Detail(ctx, "70")
	require.NoError(t, err)
	assert.Equal(t, "tableExport", job.OperationName)

	ok, err := env.client.Jobs.BlockForSuccess(ctx, "70")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, env.pollTimer.Delays())

	_, err = env.client.Jobs.Detail(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestJobs_PollDeadline(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.PollDeadline = time.Nanosecond
	})
	env.api.reply("GET /v2/storage/jobs/71", http.StatusOK, map[string]any{"id": 71, "status": "processing"})

	_, err := env.client.Jobs.BlockUntilCompleted(context.Background(), "71")
	require.Error(t, err)
	assert.True(t, errors.Is(err, jobs.ErrPollTimeout))
}

func TestTablesMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.api.reply("POST /v2/storage/tables/in.c-x.y/metadata", http.StatusCreated, []map[string]any{
		{"id": "9", "key": "KBC.description", "value": "Orders", "provider": "user", "timestamp": "2024-01-02T03:04:05+0000"},
	})
	env.api.reply("DELETE /v2/storage/tables/in.c-x.y/metadata/9", http.StatusNoContent, "")
	ctx := context.Background()

	created, err := env.client.TablesMetadata.Create(ctx, "in.c-x.y", "user",
		[]MetadataEntry{{Key: "KBC.description", Value: "Orders"}},
		map[string][]MetadataEntry{"id": {{Key: "KBC.datatype.basetype", Value: "INTEGER"}}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "9", created[0].ID.String())
	assert.Equal(t, 2024, created[0].Timestamp.Year())

	var sent map[string]any
	require.NoError(t, json.Unmarshal(env.api.last(storagePath("tables", "in.c-x.y", "metadata")).Body, &sent))
	assert.Equal(t, "user", sent["provider"])
	assert.Contains(t, sent, "columnsMetadata")

	require.NoError(t, env.client.TablesMetadata.Delete(ctx, "in.c-x.y", "9"))

	_, err = env.client.TablesMetadata.Create(ctx, "in.c-x.y", "user", nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestConfigurations_Create(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.BranchID = "321"
	})
	env.api.reply("POST /v2/storage/branch/321/components/keboola.ex-db/configs", http.StatusCreated, map[string]any{
		"id":            "cfg-1",
		"name":          "Extractor",
		"version":       1,
		"configuration": map[string]any{"parameters": map[string]any{"db": "sales"}},
	})

	cfg, err := env.client.Configurations.Create(context.Background(), "keboola.ex-db", CreateConfigurationOptions{
		Name:          "Extractor",
		Configuration: map[string]any{"parameters": map[string]any{"db": "sales"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", cfg.ID)

	var stored struct {
		Parameters struct {
			DB string `json:"db"`
		} `json:"parameters"`
	}
	require.NoError(t, cfg.Configuration.Decode(&stored))
	assert.Equal(t, "sales", stored.Parameters.DB)

	form := env.api.last(storagePath("branch", "321", "components", "keboola.ex-db", "configs")).Form(t)
	assert.Equal(t, "Extractor", form.Get("name"))
	assert.JSONEq(t, `{"parameters":{"db":"sales"}}`, form.Get("configuration"))
	assert.Equal(t, "0", form.Get("isDisabled"))
	_, hasState := form["state"]
	assert.False(t, hasState)
}

func TestConfigurations_CreateRequiresName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.Configurations.Create(context.Background(), "keboola.ex-db", CreateConfigurationOptions{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Empty(t, env.api.Requests())
}

func TestComponentsAndConfigurationMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.api.reply("GET /v2/storage/branch/default/components", http.StatusOK, []map[string]any{
		{"id": "keboola.ex-db", "type": "extractor", "name": "DB", "configurations": []map[string]any{{"id": "1", "name": "a"}}},
	})
	env.api.reply("POST /v2/storage/branch/default/components/keboola.ex-db/configs/1/metadata", http.StatusCreated, []map[string]any{
		{"id": 5, "key": "KBC.configuration.folderName", "value": "db"},
	})
	ctx := context.Background()

	components, err := env.client.Components.List(ctx, "configuration")
	require.NoError(t, err)
	require.Len(t, components, 1)
	require.Len(t, components[0].Configurations, 1)
	assert.Equal(t, "configuration", env.api.last(storagePath("branch", "default", "components")).Query.Get("include"))

	md, err := env.client.ConfigurationsMetadata.Create(ctx, "keboola.ex-db", "1", []MetadataEntry{
		{Key: "KBC.configuration.folderName", Value: "db"},
	})
	require.NoError(t, err)
	require.Len(t, md, 1)
	assert.Equal(t, "5", md[0].ID.String())

	body := env.api.last(storagePath("branch", "default", "components", "keboola.ex-db", "configs", "1", "metadata")).Body
	assert.JSONEq(t, `{"metadata":[{"key":"KBC.configuration.folderName","value":"db"}]}`, string(body))

	env.api.reply("GET /v2/storage/branch/default/components/keboola.ex-db/configs/1", http.StatusOK, map[string]any{
		"id": "1", "name": "a", "version": 3,
	})
	cfg, err := env.client.ConfigurationsMetadata.Detail(ctx, "keboola.ex-db", "1")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Version)

	_, err = env.client.ConfigurationsMetadata.Detail(ctx, "keboola.ex-db", "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestTriggers(t *testing.T) {
	env := newTestEnv(t)
	env.api.reply("POST /v2/storage/triggers", http.StatusCreated, map[string]any{
		"id": 3, "runWithTokenId": 100, "component": "orchestrator", "configurationId": 55, "coolDownPeriodMinutes": 10,
	})
	env.api.reply("PUT /v2/storage/triggers/3", http.StatusOK, map[string]any{
		"id": 3, "coolDownPeriodMinutes": 20,
	})
	ctx := context.Background()

	trigger, err := env.client.Triggers.Create(ctx, CreateTriggerRequest{
		RunWithTokenID:        100,
		Component:             "orchestrator",
		ConfigurationID:       55,
		CoolDownPeriodMinutes: 10,
		TableIDs:              []string{"in.c-x.y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "55", trigger.ConfigurationID.String())
	assert.JSONEq(t,
		`{"runWithTokenId":100,"component":"orchestrator","configurationId":55,"coolDownPeriodMinutes":10,"tableIds":["in.c-x.y"]}`,
		string(env.api.last(storagePath("triggers")).Body))

	coolDown := 20
	trigger, err = env.client.Triggers.Update(ctx, "3", UpdateTriggerRequest{CoolDownPeriodMinutes: &coolDown})
	require.NoError(t, err)
	assert.Equal(t, 20, trigger.CoolDownPeriodMinutes)

	form := env.api.last(storagePath("triggers", "3")).Form(t)
	assert.Equal(t, "20", form.Get("coolDownPeriodMinutes"))
	assert.Len(t, form, 1)

	_, err = env.client.Triggers.Create(ctx, CreateTriggerRequest{Component: "orchestrator"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestBranches(t *testing.T) {
	env := newTestEnv(t)
	env.api.reply("GET /v2/storage/branch/default/metadata", http.StatusOK, []map[string]any{
		{"id": "1", "key": "KBC.projectDescription", "value": "Demo"},
	})
	env.api.reply("GET /v2/storage/dev-branches/123", http.StatusOK, map[string]any{
		"id": 123, "name": "feature", "isDefault": false,
	})
	ctx := context.Background()

	md, err := env.client.Branches.Metadata(ctx, DefaultBranchID)
	require.NoError(t, err)
	require.Len(t, md, 1)
	assert.Equal(t, "Demo", md[0].Value)

	branch, err := env.client.Branches.Detail(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "feature", branch.Name)

	_, err = env.client.Branches.Metadata(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
