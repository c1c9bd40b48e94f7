package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   Version
		ok     bool
	}{
		{
			name:   "standard output",
			output: "xgettext (GNU gettext-tools) 0.22.5\nCopyright (C) 1995-2023",
			want:   Version{Major: 0, Minor: 22, Patch: 5},
			ok:     true,
		},
		{
			name:   "two component version",
			output: "xgettext (GNU gettext-tools) 0.25",
			want:   Version{Major: 0, Minor: 25},
			ok:     true,
		},
		{
			name:   "no version",
			output: "not a version string",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseToolVersion(tt.output)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	t.Parallel()

	v := Version{Major: 0, Minor: 24, Patch: 1}
	assert.True(t, v.AtLeast(0, 24, 1))
	assert.True(t, v.AtLeast(0, 24, 0))
	assert.True(t, v.AtLeast(0, 23, 9))
	assert.False(t, v.AtLeast(0, 24, 2))
	assert.False(t, v.AtLeast(0, 25, 0))
	assert.False(t, v.AtLeast(1, 0, 0))
	assert.Equal(t, "0.24.1", v.String())
}

func TestRunToolErrors(t *testing.T) {
	t.Parallel()

	_, err := runTool("", nil)
	require.Error(t, err)

	_, err = runTool("", []string{"/nonexistent/binary-for-test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestRunToolCapturesStreams(t *testing.T) {
	t.Parallel()

	res, err := runTool(t.TempDir(), []string{"sh", "-c", "echo out; echo err >&2"})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.stdout)
	assert.Equal(t, "err\n", res.stderr)
}

func TestFindToolsBadOverride(t *testing.T) {
	t.Parallel()

	_, err := FindTools("/nonexistent/xgettext-for-test")
	require.Error(t, err)
}
