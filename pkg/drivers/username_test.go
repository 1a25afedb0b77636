package drivers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUsername(t *testing.T) {
	taken := map[string]bool{}
	assert.Equal(t, "bsmith-1", GenerateUsername("Bob", "Smith", taken))
}

func TestGenerateUsernameDeaccentsAndStrips(t *testing.T) {
	assert.Equal(t, "agarcialopez-1",
		GenerateUsername("Ána", "García-López", map[string]bool{}))
}

func TestGenerateUsernameCollisionSuffix(t *testing.T) {
	taken := map[string]bool{"bsmith-1": true, "bsmith-2": true}
	assert.Equal(t, "bsmith-3", GenerateUsername("Bob", "Smith", taken))
}

func TestGenerateUsernameRespectsMaxLength(t *testing.T) {
	long := strings.Repeat("x", 400)
	u := GenerateUsername("A", long, map[string]bool{})
	assert.LessOrEqual(t, len(u), MaxUsernameLength)
	assert.True(t, strings.HasSuffix(u, "-1"))
}

func TestGenerateUsernameEmptyNames(t *testing.T) {
	assert.Equal(t, "-1", GenerateUsername("", "", map[string]bool{}))
}
