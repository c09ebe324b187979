package circle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// rawCircle decodes a JSON object literal into a RawCircle.
func rawCircle(t *testing.T, doc string) RawCircle {
	t.Helper()
	var raw RawCircle
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

// mustJSON marshals v and fails the test on error.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
