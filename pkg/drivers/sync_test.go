package drivers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rostersync/pkg/samsara"
)

func TestRunApplyCreatesAndReports(t *testing.T) {
	payroll := writeFile(t, "paycom.csv",
		"Employee_Code,First_Name,Last_Name,Work_Email,Status\n"+
			"E100,Bob,Smith,bob@example.com,Active\n")
	outDir := t.TempDir()

	client := newFakeDriverClient()
	client.tags = []samsara.Tag{{ID: "m1", Name: ManagedByDriverTag}}

	require.NoError(t, Run(context.Background(), client, Config{
		PayrollCSV: payroll,
		OutDir:     outDir,
		Apply:      true,
	}))

	require.Len(t, client.created, 1)
	created := client.created[0]
	assert.Equal(t, "Bob", created.FirstName)
	assert.Contains(t, created.TagIDs, "m1", "managed tag resolved by name")
	assert.Equal(t, "E100", created.ExternalIDs[KeyEmployeeCode])

	base := filepath.Join(outDir, "drivers")
	for _, name := range []string{
		"dry_run_diff.csv", "drivers_sync_plan.csv", "drivers_sync_results.csv", "actions.jsonl",
	} {
		_, err := os.Stat(filepath.Join(base, name))
		assert.NoError(t, err, name)
	}

	plan, err := os.ReadFile(filepath.Join(base, "drivers_sync_plan.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(plan), "E100")
	assert.Contains(t, string(plan), "create")
}

func TestRunDryRunWritesPlanOnly(t *testing.T) {
	payroll := writeFile(t, "paycom.csv",
		"Employee_Code,First_Name,Last_Name,Status\nE100,Bob,Smith,Active\n")
	client := newFakeDriverClient()
	client.drivers = []samsara.Driver{existingDriver("d9", "E900")}

	require.NoError(t, Run(context.Background(), client, Config{
		PayrollCSV: payroll,
		OutDir:     t.TempDir(),
	}))
	assert.Empty(t, client.created)
	assert.Empty(t, client.patched, "orphan deactivation stays planned in dry run")
}
