package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/spektr-org/charta/instruction"
)

func barSpec(t *testing.T) *Spec {
	t.Helper()
	inst := chartOf(instruction.XYChart{ChartKind: instruction.Bar, X: "region", Y: "total_sales"})
	spec, err := NewDispatcher(Options{}).Dispatch(inst, sales())
	require.NoError(t, err)
	return spec
}

func TestEncode_JSONAndMsgpackShareFieldNames(t *testing.T) {
	spec := barSpec(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, spec, FormatJSON))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))

	buf.Reset()
	require.NoError(t, Encode(&buf, spec, FormatMsgpack))
	var fromMsgpack map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &fromMsgpack))

	for _, key := range []string{"kind", "title", "instructionId", "fields", "series", "columns", "rows"} {
		assert.Contains(t, fromJSON, key)
		assert.Contains(t, fromMsgpack, key)
	}
	assert.Equal(t, "bar", fromMsgpack["kind"])
	assert.NotContains(t, fromMsgpack, "bins")
	assert.NotContains(t, fromMsgpack, "fallback")
}

func TestEncode_Pretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]int{"a": 1}, FormatPretty))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestEncode_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, barSpec(t), FormatCSV))
	assert.Equal(t, "region,total_sales,note\nnorth,1200,x\nsouth,800,y\neast,300.5,w\n", buf.String())

	assert.Error(t, Encode(&buf, map[string]int{}, FormatCSV))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" MsgPack ")
	require.NoError(t, err)
	assert.Equal(t, FormatMsgpack, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
