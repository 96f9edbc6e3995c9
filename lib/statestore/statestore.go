package statestore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// State mirrors the chromium storage-state document: the cookies of an
// authenticated browsing session plus per-origin storage. Origins are
// carried opaquely so a browser engine can round-trip whatever it wrote.
type State struct {
	Cookies []Cookie        `json:"cookies"`
	Origins json.RawMessage `json:"origins,omitempty"`
}

type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HttpOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Load reads previously saved session state. A missing or unreadable
// file is treated as "no saved session", never as a fatal condition:
// the caller simply starts a fresh unauthenticated session.
func Load(path string) (State, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read session state", "path", path, "err", err)
		}
		return State{}, false
	}

	var state State
	err = json.Unmarshal(raw, &state)
	if err != nil {
		slog.Warn("discarding corrupt session state", "path", path, "err", err)
		return State{}, false
	}
	return state, true
}

// Save atomically overwrites the session state file. The file holds
// live credentials in cookie form, so it is written 0600.
func Save(path string, state State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = tmp.Chmod(0600)
	if err != nil {
		tmp.Close()
		return err
	}
	_, err = tmp.Write(raw)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Restrict clamps permissions on a state file written by an external
// engine that does not know the file is sensitive.
func Restrict(path string) {
	err := os.Chmod(path, 0600)
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to restrict session state permissions", "path", path, "err", err)
	}
}
