package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"agora/internal/youth"
	"agora/pkg/platform/sentinel"
)

// File reads profiles from a JSON document of key/record pairs, the
// server-side stand-in for browser local storage:
//
//	{"profile": {"birthdate": "2010-03-14"}}
//
// The file is re-read on every Load so external edits are picked up.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the record under key, or sentinel.ErrNotFound when the file
// or key does not exist.
func (f *File) Load(_ context.Context, key string) (*youth.Profile, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile store: %w", err)
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode profile store: %w", err)
	}
	raw, ok := records[key]
	if !ok || string(raw) == "null" {
		return nil, sentinel.ErrNotFound
	}
	var profile youth.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", key, err)
	}
	return &profile, nil
}
