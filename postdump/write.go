package postdump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EncodePost renders post the way it's stored: two-space indented, newline-terminated UTF-8
// JSON, with <, > and & left as they are.
func EncodePost(post Post) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(post); err != nil {
		return nil, fmt.Errorf("postdump: couldn't encode post %d: %w", post.ID, err)
	}
	return buf.Bytes(), nil
}

// WritePost stores post as <dataDir>/<slug>.json, replacing any previous version.
func WritePost(dataDir string, post Post) (string, error) {
	if post.Slug == "" {
		return "", fmt.Errorf("postdump: post %d has no slug", post.ID)
	}

	content, err := EncodePost(post)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("postdump: couldn't create directory %s: %w", dataDir, err)
	}

	abs := filepath.Join(dataDir, post.Slug+".json")
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return "", fmt.Errorf("postdump: couldn't write file %s: %w", abs, err)
	}

	return abs, nil
}
