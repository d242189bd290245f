package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLZ4Codec_RoundTripGob(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewGobCodec())

	original := testState{
		Name:   "lz4-gob",
		Count:  7,
		Values: map[string]int{"a": 1, "b": 2},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original, decoded)
}

func TestLZ4Codec_RoundTripJSON(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewJSONCodec())

	original := testState{Name: "lz4-json", Count: 9}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original.Name, decoded.Name)
	assert.Equal(t, original.Count, decoded.Count)
}

func TestLZ4Codec_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".gob.lz4", NewLZ4Codec(NewGobCodec()).Extension())
	assert.Equal(t, ".json.lz4", NewLZ4Codec(NewJSONCodec()).Extension())
}

func TestLZ4Codec_CompressesRepetitiveData(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewJSONCodec())

	state := testState{Name: strings.Repeat("x", 4096), Count: 1}

	var compressed bytes.Buffer

	require.NoError(t, codec.Encode(&compressed, state))

	var plain bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&plain, state))

	assert.Less(t, compressed.Len(), plain.Len())
}

func TestLZ4Codec_DecodeError(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewGobCodec())

	var decoded testState

	err := codec.Decode(strings.NewReader("not an lz4 stream"), &decoded)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lz4 decode")
}
