package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"relative joins base", dir, "scripts/build.sh", filepath.Join(dir, "scripts", "build.sh")},
		{"absolute kept", "/elsewhere", filepath.Join(dir, "main.go"), filepath.Join(dir, "main.go")},
		{"absolute cleaned", "", dir + "/a/../b.txt", filepath.Join(dir, "b.txt")},
		{"home expanded", dir, "~/notes.md", filepath.Join(home, "notes.md")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fileutil.Resolve(tt.base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoBaseUsesWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := fileutil.Resolve("", "rel.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rel.txt"), got)
}

func TestResolve_Empty(t *testing.T) {
	_, err := fileutil.Resolve(t.TempDir(), "")
	assert.Error(t, err)
}
