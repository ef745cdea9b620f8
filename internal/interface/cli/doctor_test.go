package cli

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_DoctorHealthyStore(t *testing.T) {
	setupHome(t, "")
	_, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)

	out, _, err := execute(t, "", "doctor", "--json")
	require.NoError(t, err)

	var report DoctorJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.SchemaVersion)
	assert.Equal(t, 1, report.Records)
	assert.Empty(t, report.Undecodable)
	assert.Empty(t, report.Errors)
	assert.Contains(t, report.Warnings, "no collector_url configured: journals stay local")
}

func TestCLI_DoctorLeavesArchiveDirUntouched(t *testing.T) {
	home := setupHome(t, "")
	archiveDir := filepath.Join(home, ".auditjournal", "archive")

	out, _, err := execute(t, "", "doctor", "--json")
	require.NoError(t, err)
	var report DoctorJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Contains(t, report.Warnings, "archive dir does not exist yet: created by the first archive run")

	_, err = os.Stat(archiveDir)
	assert.True(t, os.IsNotExist(err), "doctor must not create the archive dir")

	require.NoError(t, os.MkdirAll(archiveDir, 0o755))
	out, _, err = execute(t, "", "doctor", "--json")
	require.NoError(t, err)
	report = DoctorJSON{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	for _, w := range report.Warnings {
		assert.NotContains(t, w, "archive dir")
	}
	entries, err := os.ReadDir(archiveDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCLI_DoctorReportsUndecodableRecords(t *testing.T) {
	home := setupHome(t, "")
	_, _, err := execute(t, web1Run, "ingest")
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", filepath.Join(home, ".auditjournal", "journal_callback.cache"))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO journal_cache (stored_at, payload) VALUES ('2026-10-01T00:00:00Z', X'00FF')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, _, err := execute(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 2")
	assert.Contains(t, out, "WARN: 1 record(s) cannot be decoded")

	// Corrupt records never break the listings
	out, _, err = execute(t, "", "--export")
	require.NoError(t, err)
	var journals []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &journals))
	assert.Len(t, journals, 1)
}

func TestCLI_DoctorStoreOpenFailure(t *testing.T) {
	home := setupHome(t, "")
	blocker := filepath.Join(home, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	out, _, err := execute(t, "", "--store", filepath.Join(blocker, "db"), "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "ERROR:")
}
