package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogValueScanNumeric(t *testing.T) {
	var v LogValue
	require.NoError(t, v.Scan(int64(5)))
	assert.Equal(t, "5", string(v))
	require.NoError(t, v.Scan(2.5))
	assert.Equal(t, "2.5", string(v))
	require.NoError(t, v.Scan("\"x\""))
	assert.Equal(t, `"x"`, string(v))
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
	assert.Error(t, v.Scan(struct{}{}))
}

func TestLogValueJSON(t *testing.T) {
	b, err := json.Marshal(Log{OldValue: LogValue(`{"a":1}`)})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"oldValue":{"a":1}`)
	assert.Contains(t, string(b), `"newValue":null`)

	var l Log
	require.NoError(t, json.Unmarshal([]byte(`{"oldValue":3,"newValue":null}`), &l))
	assert.Equal(t, "3", string(l.OldValue))
	assert.Nil(t, l.NewValue)
}
