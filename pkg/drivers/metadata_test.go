package drivers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTimezoneMapForgivingHeaders(t *testing.T) {
	path := writeFile(t, "tz.csv",
		"Driver Name,Time Zone\nBob  Smith,America/Chicago\nAna García,central\n")
	m, err := LoadTimezoneMap(path)
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", m["bob smith"])
	assert.Equal(t, "America/Chicago", m["ana garcía"])
}

func TestLoadTimezoneMapDropsUnresolvable(t *testing.T) {
	path := writeFile(t, "tz.csv", "driver,tz\nBob,Not A Zone\n")
	m, err := LoadTimezoneMap(path)
	require.NoError(t, err)
	assert.Equal(t, "", m["bob"])
}

func TestLoadTimezoneMapMissingColumn(t *testing.T) {
	path := writeFile(t, "tz.csv", "driver,notes\nBob,x\n")
	_, err := LoadTimezoneMap(path)
	assert.Error(t, err)
}

func TestLoadPeerGroups(t *testing.T) {
	path := writeFile(t, "pg.csv", "Full Name,Peer Group\nBob Smith,  North  Texas \n")
	m, err := LoadPeerGroups(path)
	require.NoError(t, err)
	assert.Equal(t, "North Texas", m["bob smith"])
}

func TestLoadDriverTags(t *testing.T) {
	path := writeFile(t, "tags.csv",
		"driver,tag ids,license state,hire date\n"+
			"Bob Smith,\"t2, t1;t3|t1\",tx,01/15/2024\n"+
			"Eve Jones,t9,Texas,never\n")
	m, err := LoadDriverTags(path)
	require.NoError(t, err)

	bob := m["bob smith"]
	assert.Equal(t, []string{"t1", "t2", "t3"}, bob.TagIDs)
	assert.Equal(t, "TX", bob.LicenseState)
	assert.Equal(t, "2024-01-15", bob.HireDate)

	eve := m["eve jones"]
	assert.Equal(t, []string{"t9"}, eve.TagIDs)
	assert.Equal(t, "", eve.LicenseState, "non two-letter state dropped")
}

func TestLoadDriverTagsOptionalColumns(t *testing.T) {
	path := writeFile(t, "tags.csv", "driver,tags\nBob,t1 t2\n")
	m, err := LoadDriverTags(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, m["bob"].TagIDs)
}

func TestMergeMetadata(t *testing.T) {
	merged := MergeMetadata(
		map[string]string{"bob": "America/Denver"},
		map[string]string{"eve": "West"},
		map[string]DriverTags{"bob": {TagIDs: []string{"t1"}, LicenseState: "CO"}},
	)

	bob := merged["bob"]
	assert.Equal(t, "America/Denver", bob.Timezone)
	assert.Equal(t, []string{"t1"}, bob.TagIDs)
	assert.Equal(t, "CO", bob.LicenseState)
	assert.Equal(t, "", bob.PeerGroup)

	eve := merged["eve"]
	assert.Equal(t, "West", eve.PeerGroup)
	assert.Equal(t, "", eve.Timezone)
}

func TestFindColumnPrefersExactMatch(t *testing.T) {
	header := []string{"Timezone Notes", "Time_Zone"}
	i, ok := findColumn(header, "timezone", "time zone")
	require.True(t, ok)
	assert.Equal(t, 1, i, "exact sanitized match beats substring")
}
