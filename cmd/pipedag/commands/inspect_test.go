package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInspect_TablePrintsShapeAndCompletion(t *testing.T) {
	t.Parallel()

	dir := buildCompletedRun(t, t.TempDir(), []int{1, 2, 3})

	var buf bytes.Buffer

	require.NoError(t, runInspect(dir, false, &buf))

	out := buf.String()
	assert.Contains(t, out, "y")
	assert.Contains(t, out, "x[i] -> y[i]")
	assert.Contains(t, out, "[3]")
}

func TestRunInspect_YAMLDumpsRawManifest(t *testing.T) {
	t.Parallel()

	dir := buildCompletedRun(t, t.TempDir(), []int{1, 2})

	var buf bytes.Buffer

	require.NoError(t, runInspect(dir, true, &buf))
	assert.Contains(t, buf.String(), "file_array")
}

func TestRunInspect_MissingRunFolderFails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := runInspect(t.TempDir(), false, &buf)
	require.Error(t, err)
}
