package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformMetaEmpty(t *testing.T) {
	meta := TransformMeta(map[string]any{}, DefaultSystemMetaKey)
	assert.NotNil(t, meta.System)
	assert.NotNil(t, meta.User)
	assert.Empty(t, meta.System)
	assert.Empty(t, meta.User)
	assert.Equal(t, "", meta.Comment)
	assert.Equal(t, "", meta.Target)
	// Positional join of the two always-present parts.
	assert.Equal(t, " ", meta.Text)
}

func TestTransformMetaPopsNestedFields(t *testing.T) {
	raw := map[string]any{
		"helium": map[string]any{
			"comment":   "a comment",
			"target":    "a target",
			"user_meta": map[string]any{"team": "data"},
			"origin":    "upload",
		},
	}
	meta := TransformMeta(raw, "helium")

	assert.Equal(t, "a comment", meta.Comment)
	assert.Equal(t, "a target", meta.Target)
	assert.Equal(t, map[string]any{"team": "data"}, meta.User)
	assert.Equal(t, map[string]any{"origin": "upload"}, meta.System)

	assert.Contains(t, meta.Text, "a comment a target")
	assert.Contains(t, meta.Text, `{"origin":"upload"}`)
	assert.Contains(t, meta.Text, `{"team":"data"}`)
}

func TestTransformMetaOrdering(t *testing.T) {
	raw := map[string]any{
		"helium": map[string]any{
			"comment":   "c",
			"target":    "t",
			"user_meta": map[string]any{"u": "1"},
			"s":         "2",
		},
	}
	meta := TransformMeta(raw, "helium")
	assert.Equal(t, `c t {"s":"2"} {"u":"1"}`, meta.Text)
}

func TestTransformMetaDoesNotMutateInput(t *testing.T) {
	nested := map[string]any{"comment": "c", "origin": "upload"}
	raw := map[string]any{"helium": nested}
	_ = TransformMeta(raw, "helium")
	assert.Equal(t, "c", nested["comment"])
}

func TestTransformMetaNullishFieldsBecomeEmpty(t *testing.T) {
	raw := map[string]any{
		"helium": map[string]any{"comment": nil, "target": nil},
	}
	meta := TransformMeta(raw, "helium")
	assert.Equal(t, "", meta.Comment)
	assert.Equal(t, "", meta.Target)
}

func TestTransformMetaConfigurableKey(t *testing.T) {
	raw := map[string]any{
		"custom": map[string]any{"comment": "c"},
	}
	assert.Equal(t, "c", TransformMeta(raw, "custom").Comment)
	assert.Equal(t, "", TransformMeta(raw, "helium").Comment)
}

func TestDecodeHeadMetaParsesNestedJSON(t *testing.T) {
	raw := map[string]string{
		"helium": `{"comment":"c","user_meta":{"k":"v"}}`,
		"other":  "plain",
	}
	out := DecodeHeadMeta(raw, "helium")

	nested, ok := out["helium"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c", nested["comment"])
	assert.Equal(t, "plain", out["other"])
}

func TestDecodeHeadMetaKeepsRawOnParseFailure(t *testing.T) {
	raw := map[string]string{"helium": "{not json"}
	out := DecodeHeadMeta(raw, "helium")
	assert.Equal(t, "{not json", out["helium"])
}

func TestDecodeHeadMetaEmpty(t *testing.T) {
	out := DecodeHeadMeta(nil, "helium")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
