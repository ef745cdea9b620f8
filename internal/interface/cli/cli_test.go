package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/auditjournal/internal/adapter/gateway/collector"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/dto"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

// setupHome points HOME at a fresh directory and optionally writes setting.json
func setupHome(t *testing.T, settings string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	if settings != "" {
		dir := filepath.Join(home, ".auditjournal")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "setting.json"), []byte(settings), 0o644))
	}
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRoot()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

const web1Run = `{"event":"run_start"}
{"event":"task_ok","host":"web1","result":{"invocation":{"module_name":"setup"},"ansible_facts":{"ansible_env":{"USER":"root"}}}}
{"event":"task_ok","host":"web1","result":{"invocation":{"module_name":"command"},"changed":true}}
{"event":"task_failed","host":"web1","result":{"invocation":{"module_name":"service"},"failed":true}}
{"event":"run_end","summary":{"web1":{"ok":2,"failures":1}}}
`

const db1Run = `{"event":"run_start"}
{"event":"task_ok","host":"db1","result":{"invocation":{"module_name":"command"},"changed":false}}
{"event":"run_end"}
`

func TestCLI_IngestAndQueries(t *testing.T) {
	setupHome(t, "")

	out, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "stored record 1 (delivery: skipped)")
	_, _, err = execute(t, db1Run, "ingest")
	require.NoError(t, err)

	t.Run("blame known host", func(t *testing.T) {
		out, _, err := execute(t, "", "--blame", "web1")
		require.NoError(t, err)

		var resp dto.BlameResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Records, 1)
		assert.Equal(t, int64(1), resp.Records[0].RecordID)
		require.Len(t, resp.Records[0].Tasks, 3)
		assert.Equal(t, "setup", resp.Records[0].Tasks[0].Module)
		assert.Equal(t, "failed", resp.Records[0].Tasks[2].Outcome)
	})

	t.Run("blame unknown host", func(t *testing.T) {
		out, _, err := execute(t, "", "--blame", "ghost-host")
		require.NoError(t, err)

		var resp dto.BlameResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.NotNil(t, resp.Records)
		assert.Empty(t, resp.Records)
	})

	t.Run("pretty list", func(t *testing.T) {
		out, _, err := execute(t, "", "--pretty-list")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[0], "FAILED")
		assert.True(t, strings.HasPrefix(lines[1], "1 "))
		assert.True(t, strings.HasPrefix(lines[2], "2 "))
	})

	t.Run("list", func(t *testing.T) {
		out, _, err := execute(t, "", "--list")
		require.NoError(t, err)

		var records []map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		require.Len(t, records, 2)
		assert.Contains(t, records[0], "stored_at")
		assert.Contains(t, records[0], "journal")
	})

	t.Run("export", func(t *testing.T) {
		out, _, err := execute(t, "", "--export")
		require.NoError(t, err)

		var journals []*journal.Journal
		require.NoError(t, json.Unmarshal([]byte(out), &journals))
		require.Len(t, journals, 2)
		assert.Equal(t, []string{"web1"}, journals[0].Hosts.Names())
		assert.Equal(t, []string{"db1"}, journals[1].Hosts.Names())
		rec, ok := journals[0].Hosts.Get("web1")
		require.True(t, ok)
		assert.Equal(t, 2, rec.SuccessCount)
		assert.Equal(t, 1, rec.FailureCount)
	})

	t.Run("query flags are exclusive", func(t *testing.T) {
		_, _, err := execute(t, "", "--list", "--export")
		assert.Error(t, err)
	})
}

func TestCLI_EmptyStore(t *testing.T) {
	setupHome(t, "")

	out, _, err := execute(t, "", "--export")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, _, err = execute(t, "", "--pretty-list")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
}

func TestCLI_StoreOpenFailure(t *testing.T) {
	home := setupHome(t, "")
	blocker := filepath.Join(home, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := execute(t, "", "--store", filepath.Join(blocker, "cache.db"), "--export")
	var storeErr *journal.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestCLI_IngestWithoutRunEnd(t *testing.T) {
	setupHome(t, "")

	in := `{"event":"task_ok","host":"web1","result":{"changed":true}}
{"event":"task_failed","host":"web2","result":{"failed":true}}
`
	out, _, err := execute(t, in, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "stored record 1")

	out, _, err = execute(t, "", "--export")
	require.NoError(t, err)
	var journals []*journal.Journal
	require.NoError(t, json.Unmarshal([]byte(out), &journals))
	require.Len(t, journals, 1)
	assert.Equal(t, []string{"web1", "web2"}, journals[0].Hosts.Names())
}

func TestCLI_IngestPerTaskMode(t *testing.T) {
	setupHome(t, `{"per_task_finalize": true}`)

	in := `{"event":"task_ok","host":"web1","result":{"changed":true}}
{"event":"task_ok","host":"web1","result":{"changed":false}}
`
	out, _, err := execute(t, in, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "stored record 1")
	assert.Contains(t, out, "stored record 2")
	assert.NotContains(t, out, "stored record 3")
}

func TestCLI_IngestPerTaskModeStoresTrailingFailures(t *testing.T) {
	setupHome(t, `{"per_task_finalize": true}`)

	in := `{"event":"task_ok","host":"web1","result":{"changed":true}}
{"event":"task_failed","host":"db9","result":{"failed":true}}
`
	out, _, err := execute(t, in, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "stored record 1")
	assert.Contains(t, out, "stored record 2")

	out, _, err = execute(t, "", "--export")
	require.NoError(t, err)
	var journals []*journal.Journal
	require.NoError(t, json.Unmarshal([]byte(out), &journals))
	require.Len(t, journals, 2)
	last := journals[1]
	assert.Equal(t, []string{"web1", "db9"}, last.Hosts.Names())
	rec, ok := last.Hosts.Get("db9")
	require.True(t, ok)
	assert.Equal(t, 1, rec.FailureCount)
}

func TestCLI_IngestRejectsMalformedStream(t *testing.T) {
	setupHome(t, "")

	_, _, err := execute(t, "{not json}\n", "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")
}

func TestCLI_IngestWarnsOnUnknownEvent(t *testing.T) {
	setupHome(t, "")

	_, errOut, err := execute(t, `{"event":"playbook_on_play_start"}`+"\n", "ingest")
	require.NoError(t, err)
	assert.Contains(t, errOut, "unknown event")
}

func newCollector(t *testing.T, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == collector.JournalPath {
			atomic.AddInt32(&hits, 1)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCLI_IngestDeliversToCollector(t *testing.T) {
	srv, hits := newCollector(t, http.StatusCreated)
	setupHome(t, `{"collector_url": "`+srv.URL+`"}`)

	out, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "delivery: delivered")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestCLI_IngestKeepsJournalWhenCollectorFails(t *testing.T) {
	srv, _ := newCollector(t, http.StatusInternalServerError)
	setupHome(t, `{"collector_url": "`+srv.URL+`"}`)

	out, errOut, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "delivery: failed")
	assert.Contains(t, errOut, "could not be delivered")

	out, _, err = execute(t, "", "--export")
	require.NoError(t, err)
	var journals []*journal.Journal
	require.NoError(t, json.Unmarshal([]byte(out), &journals))
	assert.Len(t, journals, 1)
}

func TestCLI_Resend(t *testing.T) {
	srv, hits := newCollector(t, http.StatusCreated)
	home := setupHome(t, "")
	_, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)
	_, _, err = execute(t, db1Run, "ingest")
	require.NoError(t, err)

	settingPath := filepath.Join(home, "resend.json")
	require.NoError(t, os.WriteFile(settingPath, []byte(`{"collector_url": "`+srv.URL+`"}`), 0o644))

	out, _, err := execute(t, "", "--config", settingPath, "resend", "--after-id", "1")
	require.NoError(t, err)

	var resp dto.ResendResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Delivered)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(2), resp.Results[0].RecordID)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestCLI_ResendSingleRecord(t *testing.T) {
	srv, hits := newCollector(t, http.StatusCreated)
	setupHome(t, "")
	_, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)
	_, _, err = execute(t, db1Run, "ingest")
	require.NoError(t, err)

	home := os.Getenv("HOME")
	settingPath := filepath.Join(home, "resend.json")
	require.NoError(t, os.WriteFile(settingPath, []byte(`{"collector_url": "`+srv.URL+`"}`), 0o644))

	out, _, err := execute(t, "", "--config", settingPath, "resend", "--id", "1")
	require.NoError(t, err)

	var resp dto.ResendResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].RecordID)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	_, _, err = execute(t, "", "--config", settingPath, "resend", "--id", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 7")

	_, _, err = execute(t, "", "--config", settingPath, "resend", "--id", "1", "--after-id", "1")
	assert.Error(t, err)
}

func TestCLI_ResendRequiresCollector(t *testing.T) {
	setupHome(t, "")

	_, _, err := execute(t, "", "resend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector_url")
}

func TestCLI_ArchiveToDirectory(t *testing.T) {
	home := setupHome(t, "")
	_, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)

	dir := filepath.Join(home, "out")
	out, _, err := execute(t, "", "archive", "--dir", dir)
	require.NoError(t, err)

	var resp dto.ArchiveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Archived)

	data, err := os.ReadFile(filepath.Join(dir, "journals", "000000000001.json"))
	require.NoError(t, err)
	var j journal.Journal
	require.NoError(t, json.Unmarshal(data, &j))
	assert.Equal(t, []string{"web1"}, j.Hosts.Names())
}

func TestCLI_ArchiveList(t *testing.T) {
	home := setupHome(t, "")
	dir := filepath.Join(home, "out")

	out, _, err := execute(t, "", "archive", "--dir", dir, "--list")
	require.NoError(t, err)
	var listing dto.ArchiveListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.Empty(t, listing.Entries)

	_, _, err = execute(t, web1Run, "ingest")
	require.NoError(t, err)
	_, _, err = execute(t, "", "archive", "--dir", dir)
	require.NoError(t, err)

	out, _, err = execute(t, "", "archive", "--dir", dir, "--list")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, int64(1), listing.Entries[0].RecordID)
	assert.NotEmpty(t, listing.Entries[0].JournalID)
}

func TestCLI_ConfigInit(t *testing.T) {
	home := setupHome(t, "")
	settingPath := filepath.Join(home, ".auditjournal", "setting.json")

	out, _, err := execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, settingPath)

	data, err := os.ReadFile(settingPath)
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, filepath.Join(home, ".auditjournal", "journal_callback.cache"), written["store_path"])

	out, _, err = execute(t, "", "config", "--format", "json")
	require.NoError(t, err)
	var effective EffectiveConfig
	require.NoError(t, json.Unmarshal([]byte(out), &effective))
	assert.Equal(t, "json", effective.Meta.Source)

	_, _, err = execute(t, "", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(settingPath, []byte(`{broken`), 0o644))
	_, _, err = execute(t, "", "config", "init", "--force")
	require.NoError(t, err)
	_, _, err = execute(t, "", "config")
	assert.NoError(t, err)
}

func TestCLI_Config(t *testing.T) {
	home := setupHome(t, `{"collector_url": "https://collector.example.com", "stderr_level": "info"}`)

	out, _, err := execute(t, "", "config", "--format", "json")
	require.NoError(t, err)

	var effective EffectiveConfig
	require.NoError(t, json.Unmarshal([]byte(out), &effective))
	assert.Equal(t, "json", effective.Meta.Source)
	assert.Equal(t, filepath.Join(home, ".auditjournal", "journal_callback.cache"), effective.Store.Path)
	assert.Equal(t, "https://collector.example.com", effective.Delivery.CollectorURL)
	assert.Equal(t, 10, effective.Delivery.TimeoutSec)
	assert.Equal(t, "info", effective.Logging.StderrLevel)

	out, _, err = execute(t, "", "--store", "/tmp/elsewhere.db", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "path: /tmp/elsewhere.db")

	_, _, err = execute(t, "", "config", "--format", "toml")
	assert.Error(t, err)
}

func TestCLI_ExplicitConfigMustExist(t *testing.T) {
	home := setupHome(t, "")

	_, _, err := execute(t, "", "--config", filepath.Join(home, "missing.json"), "config")
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	setupHome(t, `{not valid json`)

	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "auditjournal version")
}
