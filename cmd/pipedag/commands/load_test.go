package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLoad_PrintsMappedAndUnmappedOutputsAsJSON(t *testing.T) {
	t.Parallel()

	dir := buildCompletedRun(t, t.TempDir(), []int{1, 2, 3})

	var buf bytes.Buffer

	require.NoError(t, runLoad(dir, []string{"y", "total"}, &buf))

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, []any{float64(2), float64(4), float64(6)}, decoded["y"])
	assert.InEpsilon(t, float64(12), decoded["total"], 0)
}

func TestRunLoad_UnknownOutputFails(t *testing.T) {
	t.Parallel()

	dir := buildCompletedRun(t, t.TempDir(), []int{1})

	var buf bytes.Buffer

	err := runLoad(dir, []string{"nonexistent"}, &buf)
	require.Error(t, err)
}
