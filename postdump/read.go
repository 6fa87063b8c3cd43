package postdump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// ParseError means a file in the post store couldn't be read back as a Post.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("postdump: couldn't load post %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadAll reads every *.json file directly inside dir, newest issue first.  One bad file fails
// the whole load.
func LoadAll(dir string) ([]Post, error) {
	files, err := ListPostFiles(dir)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, &ParseError{Path: file, Err: err}
		}

		var post Post
		if err := json.Unmarshal(content, &post); err != nil {
			return nil, &ParseError{Path: file, Err: err}
		}
		posts = append(posts, post)
	}

	slices.SortStableFunc(posts, func(a, b Post) int {
		return b.ID - a.ID
	})

	return posts, nil
}

// ListPostFiles returns the paths of the *.json files directly inside dir.  Subdirectories are
// not descended into.
func ListPostFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("postdump: couldn't list posts in %s: %w", dir, err)
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
