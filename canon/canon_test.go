package canon_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentbackplane/abp/canon"
)

func TestJSONKeyOrderInsensitive(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	b := map[string]any{"c": map[string]any{"y": 2, "z": 1}, "a": 2, "b": 1}

	ja, err := canon.JSON(a)
	require.NoError(t, err)
	jb, err := canon.JSON(b)
	require.NoError(t, err)

	require.Equal(t, string(ja), string(jb))
	require.JSONEq(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(ja))
}

func TestHashDeterministic(t *testing.T) {
	v := struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}{Name: "run", N: 3}

	h1, err := canon.Hash(v)
	require.NoError(t, err)
	h2, err := canon.Hash(v)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestSHA256HexLength(t *testing.T) {
	require.Len(t, canon.SHA256Hex([]byte("hello")), 64)
}

func TestJSONMarshalError(t *testing.T) {
	_, err := canon.JSON(func() {})
	require.Error(t, err)
}
