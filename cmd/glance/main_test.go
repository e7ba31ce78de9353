package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/glance/internal/config"
)

const schemaJSON = `{
  "hosts": {
    "id": "hosts",
    "head": "Hosts",
    "sort": {"field": "hits", "order": "desc"},
    "items": [
      {"key": "hits", "label": "Hits", "dataType": "numeric"},
      {"key": "data", "label": "Host"}
    ]
  }
}`

const dataJSON = `{
  "hosts": {"data": [
    {"hits": 10, "data": "10.0.0.1", "items": [{"hits": 4, "data": "/a"}]},
    {"hits": 30, "data": "10.0.0.2"},
    {"hits": 20, "data": "10.0.0.3"}
  ]}
}`

type fixture struct {
	dir    string
	config string
	schema string
	data   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		schema: filepath.Join(dir, "schema.json"),
		data:   filepath.Join(dir, "data.json"),
	}
	require.NoError(t, os.WriteFile(f.schema, []byte(schemaJSON), 0o644))
	require.NoError(t, os.WriteFile(f.data, []byte(dataJSON), 0o644))
	return f
}

func (f fixture) args(extra ...string) []string {
	base := []string{"--config", f.config, "--schema", f.schema, "--data", f.data, "--prefs-path", filepath.Join(f.dir, "prefs.json")}
	return append(extra, base...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "glance", root.Use)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"view", "dump", "prefs", "logs"})
}

func TestLoadFlagsOverrideConfig(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte(`
[report]
data = "/srv/report/data.json"
watch = true

[connection]
url = "ws://logs:7890"
`), 0o644))

	opts := &options{}
	root := newRootCmdWith(opts)
	require.NoError(t, root.ParseFlags([]string{
		"--config", f.config,
		"--data", f.data,
		"--url", "",
		"--prefs-backend", "sqlite",
		"--log-level", "debug",
	}))

	cfg, err := opts.load(root)
	require.NoError(t, err)
	assert.Equal(t, f.data, cfg.Report.Data)
	assert.True(t, cfg.Report.Watch, "unset flags keep config values")
	assert.False(t, cfg.Connection.Live())
	assert.Equal(t, config.BackendSQLite, cfg.Prefs.Backend)
	assert.Equal(t, config.DefaultPrefsPath(config.BackendSQLite), cfg.Prefs.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	f := newFixture(t)
	opts := &options{}
	root := newRootCmdWith(opts)
	require.NoError(t, root.ParseFlags([]string{"--config", f.config, "--prefs-backend", "redis"}))
	_, err := opts.load(root)
	require.ErrorContains(t, err, "unknown prefs backend")
}

func TestDumpTable(t *testing.T) {
	f := newFixture(t)
	out, err := execute(t, f.args("dump", "hosts")...)
	require.NoError(t, err)

	assert.Contains(t, out, "Hosts")
	assert.Contains(t, out, "Hits ↓")
	assert.Contains(t, out, "page 1/1 · 3 rows · sort hits desc")
	assert.Less(t, strings.Index(out, "10.0.0.2"), strings.Index(out, "10.0.0.3"))
	assert.Less(t, strings.Index(out, "10.0.0.3"), strings.Index(out, "10.0.0.1"))
	assert.NotContains(t, out, "/a")
}

func TestDumpJSON(t *testing.T) {
	f := newFixture(t)
	out, err := execute(t, f.args("dump", "hosts", "--json", "--sort", "data:asc", "--expand")...)
	require.NoError(t, err)

	var page dumpPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, "hosts", page.Panel)
	assert.Equal(t, "data", page.Sort.Field)
	assert.Equal(t, "asc", page.Sort.Order)
	assert.Equal(t, []string{"hits", "data"}, page.Columns)
	require.Len(t, page.Rows, 4)
	assert.Equal(t, "10.0.0.1", page.Rows[0].Cells["data"])
	assert.Equal(t, "/a", page.Rows[1].Cells["data"])
	assert.NotEmpty(t, page.Rows[1].Parent)
}

func TestDumpErrors(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, f.args("dump", "nope")...)
	require.ErrorContains(t, err, "unknown panel")

	_, err = execute(t, f.args("dump", "hosts", "--sort", "bogus")...)
	require.ErrorContains(t, err, "cannot sort")

	_, err = execute(t, f.args("dump", "hosts", "--sort", "hits:sideways")...)
	require.ErrorContains(t, err, "asc or desc")

	_, err = execute(t, "dump", "hosts", "--config", f.config, "--prefs-backend", "memory")
	require.ErrorContains(t, err, "no report source")
}

func TestPrefsSetAndGet(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.args("prefs", "set", "panels.hosts.metric", `"hits"`)...)
	require.NoError(t, err)
	assert.Equal(t, "panels.hosts.metric = \"hits\"\n", out)

	_, err = execute(t, f.args("prefs", "set", "theme", "Slate")...)
	require.NoError(t, err)

	out, err = execute(t, f.args("prefs", "get", "hosts")...)
	require.NoError(t, err)
	var panel map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &panel))
	assert.Equal(t, "hits", panel["metric"])

	out, err = execute(t, f.args("prefs", "get")...)
	require.NoError(t, err)
	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "Slate", tree["theme"])
	assert.EqualValues(t, 7, tree["perPage"])

	out, err = execute(t, f.args("prefs", "get", "unknown")...)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", out)
}

func TestPrefsSetErrors(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, f.args("prefs", "set", "panels..metric", "1")...)
	require.Error(t, err)

	_, err = execute(t, f.args("prefs", "set", "theme", `{"broken"`)...)
	require.ErrorContains(t, err, "parse value")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{raw: "15", want: float64(15)},
		{raw: "true", want: true},
		{raw: `"Slate"`, want: "Slate"},
		{raw: "Slate", want: "Slate"},
		{raw: `["a","b"]`, want: []any{"a", "b"}},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := parseValue("  ")
	require.Error(t, err)
}

func TestLogsCommand(t *testing.T) {
	f := newFixture(t)
	logPath := filepath.Join(f.dir, "glance.log")
	require.NoError(t, os.WriteFile(logPath, []byte(
		"level=INFO msg=connected subsystem=live\n"+
			"level=WARN msg=\"reload report\" subsystem=watch\n"+
			"level=ERROR msg=\"read failed\" subsystem=live\n"), 0o644))

	out, err := execute(t, "logs", "--config", f.config, "--log-file", logPath, "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.NotContains(t, out, "connected")

	out, err = execute(t, "logs", "--config", f.config, "--log-file", logPath, "--subsystem", "live", "--level", "error")
	require.NoError(t, err)
	assert.Equal(t, "level=ERROR msg=\"read failed\" subsystem=live\n", out)
}
