package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStandardSchemaCoversReservedKeys(t *testing.T) {
	d := DefaultStandardSchema()
	require.Len(t, d, len(StandardKeys))
	for _, k := range StandardKeys {
		s, ok := d[k]
		require.True(t, ok, k)
		assert.NotEmpty(t, s.Label, k)
	}
	assert.True(t, d[KeyTitle].Active())
}

func TestDefaultStandardSchemaIsCopied(t *testing.T) {
	d := DefaultStandardSchema()
	d[KeyAmount] = FieldSetting{Label: "changed"}

	assert.Equal(t, "Amount", DefaultStandardSchema()[KeyAmount].Label)
}

func TestParseDefaultsRejectsIncompleteSchema(t *testing.T) {
	_, err := parseDefaults([]byte("title:\n  enabled: true\n  required: true\n"))
	assert.Error(t, err)

	_, err = parseDefaults(append(append([]byte{}, defaultsYAML...), []byte("extra:\n  enabled: true\n")...))
	assert.Error(t, err)
}
