package sync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rostersync/pkg/report"
)

const encompassHeader = "Customer ID,Customer Name,Account Status,Latitude,Longitude," +
	"Report Company Address,Location,Company,Customer Type\n"

func writeEncompass(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(encompassHeader+rows), 0o644))
	return path
}

func TestRunFullApplyWritesArtifactsAndState(t *testing.T) {
	outDir := t.TempDir()
	cfg := PassConfig{
		EncompassCSV:   writeEncompass(t, "C1,Foo,Active,30.1,-97.7,123 A St,Austin,Acme,retail\n"),
		WarehousesPath: writeTempCSV(t, "samsara_id,name\n"),
		OutDir:         outDir,
		Apply:          true,
	}
	client := newFakeClient()

	require.NoError(t, RunFull(context.Background(), client, cfg))

	require.Len(t, client.created, 1)
	assert.Equal(t, "Foo", client.created[0].Name)

	runs, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var runDir string
	for _, e := range runs {
		if e.IsDir() {
			runDir = filepath.Join(outDir, e.Name())
		}
	}
	require.NotEmpty(t, runDir, "sink creates a per-run directory")
	for _, name := range []string{"actions.jsonl", "dry_run_diff.csv", "sync_report.csv"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "state.json"))
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Len(t, st.Fingerprints, 1, "created address fingerprint persisted")
}

func TestRunFullDryRunLeavesRemoteAlone(t *testing.T) {
	outDir := t.TempDir()
	cfg := PassConfig{
		EncompassCSV:   writeEncompass(t, "C1,Foo,Active,30.1,-97.7,123 A St,,,\n"),
		WarehousesPath: writeTempCSV(t, "samsara_id,name\n"),
		OutDir:         outDir,
	}
	client := newFakeClient()

	require.NoError(t, RunFull(context.Background(), client, cfg))
	assert.Empty(t, client.created)
	assert.Empty(t, client.patched)
	assert.Empty(t, client.deleted)

	raw, err := os.ReadFile(filepath.Join(outDir, "state.json"))
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Empty(t, st.Fingerprints, "dry run advances no fingerprints")
}

func TestRunFullReportsDuplicatesAndErrors(t *testing.T) {
	outDir := t.TempDir()
	cfg := PassConfig{
		EncompassCSV: writeEncompass(t,
			"C1,Foo,Active,30.1,-97.7,123 A St,,,\n"+
				"C1,Foo Again,Active,30.2,-97.8,456 B St,,,\n"+
				",Nameless,Active,,,no address,,,\n"),
		WarehousesPath: writeTempCSV(t, "samsara_id,name\n"),
		OutDir:         outDir,
	}

	require.NoError(t, RunFull(context.Background(), newFakeClient(), cfg))

	runs, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var runDir string
	for _, e := range runs {
		if e.IsDir() {
			runDir = filepath.Join(outDir, e.Name())
		}
	}
	require.NotEmpty(t, runDir)

	dup, err := os.ReadFile(filepath.Join(runDir, "duplicates.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(dup), "encompass_duplicate,C1,2")

	errs, err := os.ReadFile(filepath.Join(runDir, "errors.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "missing_encompass_id,Nameless")
}

func TestRunDailySkipsOrphanSweep(t *testing.T) {
	outDir := t.TempDir()
	cfg := PassConfig{
		// Delta file mentions nothing; the orphan below must survive.
		EncompassCSV:   writeEncompass(t, "C1,Foo,Active,30.1,-97.7,123 A St,,,\n"),
		WarehousesPath: writeTempCSV(t, "samsara_id,name\n"),
		OutDir:         outDir,
		Apply:          true,
	}
	client := newFakeClient()
	client.addrs = append(client.addrs, managedRemote("9", "GONE"))

	require.NoError(t, RunDaily(context.Background(), client, cfg))
	assert.Empty(t, client.patched, "daily pass must not quarantine unmentioned records")
	assert.Empty(t, client.deleted)

	raw, err := os.ReadFile(filepath.Join(outDir, "state.json"))
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Empty(t, st.CandidateDeletes)
}

func TestRunDailyHardDeletesAfterRetention(t *testing.T) {
	outDir := t.TempDir()
	statePath := filepath.Join(outDir, "state.json")

	st := NewState()
	st.CandidateDeletes["42"] = "2000-01-01T00:00:00Z"
	require.NoError(t, st.Save(statePath))

	deltaCSV := filepath.Join(t.TempDir(), "delta.csv")
	require.NoError(t, os.WriteFile(deltaCSV,
		[]byte("Customer ID,Customer Name,Account Status,Latitude,Longitude,"+
			"Report Company Address,Location,Company,Customer Type,Action\n"+
			"C1,Foo,Active,30.1,-97.7,123 A St,,,,delete\n"), 0o644))

	cfg := PassConfig{
		EncompassCSV:   deltaCSV,
		WarehousesPath: writeTempCSV(t, "samsara_id,name\n"),
		OutDir:         outDir,
		Apply:          true,
		Options:        Options{ConfirmDelete: true},
	}
	client := newFakeClient()
	quarantined := managedRemote("42", "C1")
	quarantined.ExternalIDs[KeyDeleteCandidate] = "20000101000000-42"
	client.addrs = append(client.addrs, quarantined)

	require.NoError(t, RunDaily(context.Background(), client, cfg))
	assert.Equal(t, []string{"42"}, client.deleted, "retention elapsed and confirmed")

	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var after State
	require.NoError(t, json.Unmarshal(raw, &after))
	assert.Empty(t, after.CandidateDeletes, "hard delete clears the retention clock")
}

func TestRunPurge(t *testing.T) {
	idsCSV := filepath.Join(t.TempDir(), "ids.csv")
	require.NoError(t, os.WriteFile(idsCSV, []byte("ID\n1\n2\n"), 0o644))

	client := newFakeClient()
	actions, err := RunPurge(context.Background(), client, idsCSV, true)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, []string{"1", "2"}, client.deleted)
	for _, a := range actions {
		assert.Equal(t, report.KindDelete, a.Kind)
	}
}
