package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSink(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.NotEmpty(t, sink.RunID())

	actions := []Action{
		NewAction(KindCreate, "", "C1", "create"),
		NewAction(KindSkip, "42", "C2", "unchanged_fingerprint"),
		NewAction(KindSkip, "43", "C3", "no_diff"),
	}

	require.NoError(t, sink.WriteActionsJSONL("actions.jsonl", actions))
	raw, err := os.ReadFile(filepath.Join(sink.Dir(), "actions.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	var first Action
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, KindCreate, first.Kind)
	assert.Equal(t, "C1", first.SourceID)

	require.NoError(t, sink.WriteSummaryCSV("sync_report.csv", actions))
	summary, err := os.ReadFile(filepath.Join(sink.Dir(), "sync_report.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "run_id,"+sink.RunID())
	assert.Contains(t, string(summary), "create,1")
	assert.Contains(t, string(summary), "skip,2")
}

func TestWriteCSVColumnOrder(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	rows := []map[string]string{
		{"b": "2", "a": "1"},
		{"a": "3"},
	}
	require.NoError(t, sink.WriteCSV("rows.csv", []string{"a", "b"}, rows))
	raw, err := os.ReadFile(filepath.Join(sink.Dir(), "rows.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,\n", string(raw))
}

func TestSubSinkSharesRunID(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)
	sub, err := sink.Sub("drivers")
	require.NoError(t, err)
	assert.Equal(t, sink.RunID(), sub.RunID())
	assert.DirExists(t, sub.Dir())
}

func TestSummarize(t *testing.T) {
	counts := Summarize([]Action{
		{Kind: KindUpdate}, {Kind: KindUpdate}, {Kind: KindDelete},
	})
	assert.Equal(t, map[string]int{"update": 2, "delete": 1}, counts)
}
