package aggregator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTracker_GetExposedToolName(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		tool     string
		expected string
	}{
		{name: "plain", server: "http-example.com", tool: "search", expected: "http-example_com_search"},
		{name: "stdio name", server: "stdio-npx-1", tool: "read_file", expected: "stdio-npx-1_read_file"},
		{name: "invalid characters", server: "srv", tool: "files/read.all", expected: "srv_files_read_all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := NewNameTracker()
			assert.Equal(t, tt.expected, nt.GetExposedToolName(tt.server, tt.tool))
		})
	}
}

func TestNameTracker_StableAndResolvable(t *testing.T) {
	nt := NewNameTracker()

	first := nt.GetExposedToolName("serverA", "search")
	second := nt.GetExposedToolName("serverA", "search")
	assert.Equal(t, first, second)

	server, tool, err := nt.ResolveName(first)
	require.NoError(t, err)
	assert.Equal(t, "serverA", server)
	assert.Equal(t, "search", tool)

	_, _, err = nt.ResolveName("serverB_search")
	assert.Error(t, err)
}

func TestNameTracker_Collisions(t *testing.T) {
	nt := NewNameTracker()

	a := nt.GetExposedToolName("srv", "a.b")
	b := nt.GetExposedToolName("srv", "a/b")
	c := nt.GetExposedToolName("srv", "a_b")

	assert.Equal(t, "srv_a_b", a)
	assert.Equal(t, "srv_a_b_2", b)
	assert.Equal(t, "srv_a_b_3", c)

	_, tool, err := nt.ResolveName(b)
	require.NoError(t, err)
	assert.Equal(t, "a/b", tool)
}

func TestNameTracker_LongNames(t *testing.T) {
	nt := NewNameTracker()

	long1 := nt.GetExposedToolName("stdio-server", strings.Repeat("x", 80)+"one")
	long2 := nt.GetExposedToolName("stdio-server", strings.Repeat("x", 80)+"two")

	assert.LessOrEqual(t, len(long1), MaxExposedNameLength)
	assert.LessOrEqual(t, len(long2), MaxExposedNameLength)
	assert.NotEqual(t, long1, long2)
	assert.True(t, strings.HasPrefix(long1, "stdio-server_xxx"))
}
