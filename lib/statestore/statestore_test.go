package statestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	_, ok := Load(path)
	require.False(t, ok)

	saved := State{
		Cookies: []Cookie{
			{
				Name:     "sessionid",
				Value:    "abc123",
				Domain:   "portal.example.edu",
				Path:     "/",
				HttpOnly: true,
				Secure:   true,
			},
		},
		Origins: json.RawMessage(`[{"origin":"https://portal.example.edu","localStorage":[]}]`),
	}
	err := Save(path, saved)
	require.NoError(t, err)

	loaded, ok := Load(path)
	require.True(t, ok)
	require.Equal(t, saved.Cookies, loaded.Cookies)
	require.JSONEq(t, string(saved.Origins), string(loaded.Origins))
}

func TestOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	err := Save(path, State{Cookies: []Cookie{{Name: "a", Value: "1"}}})
	require.NoError(t, err)
	err = Save(path, State{Cookies: []Cookie{{Name: "b", Value: "2"}}})
	require.NoError(t, err)

	loaded, ok := Load(path)
	require.True(t, ok)
	require.Len(t, loaded.Cookies, 1)
	require.Equal(t, "b", loaded.Cookies[0].Name)
}

func TestCorruptTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	err := os.WriteFile(path, []byte("{not json"), 0600)
	require.NoError(t, err)

	_, ok := Load(path)
	require.False(t, ok)
}

func TestPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "state.json")
	err := Save(path, State{})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
