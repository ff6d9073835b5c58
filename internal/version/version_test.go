package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	orig := [4]string{Version, Commit, Date, BuiltBy}
	t.Cleanup(func() { Version, Commit, Date, BuiltBy = orig[0], orig[1], orig[2], orig[3] })

	Version, Commit, Date, BuiltBy = "v1.2.3", "abc1234", "2024-03-01", "ci"
	assert.Equal(t, "granola-export v1.2.3, commit abc1234, built at 2024-03-01 by ci", Full())

	Version, BuiltBy = "dev", ""
	assert.True(t, strings.HasPrefix(Full(), "granola-export "))
}
