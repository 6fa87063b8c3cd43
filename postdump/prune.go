package postdump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// prune removes posts (and their asset directories) that this run didn't produce, e.g. issues
// that were closed or lost their post label.  fresh holds the slugs written this run.
func (p *Pipeline) prune(fresh map[string]bool) (int, error) {
	files, err := ListPostFiles(p.DataDir)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, file := range files {
		slug := strings.TrimSuffix(filepath.Base(file), ".json")
		if fresh[slug] {
			continue
		}

		p.logf("Pruning: %s", file)
		if err := os.Remove(file); err != nil {
			return pruned, fmt.Errorf("postdump: failed to delete %s: %w", file, err)
		}
		pruned++
	}

	assetsRoot := p.Transformer.AssetsRoot
	entries, err := os.ReadDir(assetsRoot)
	if errors.Is(err, os.ErrNotExist) {
		return pruned, nil
	}
	if err != nil {
		return pruned, fmt.Errorf("postdump: couldn't list assets in %s: %w", assetsRoot, err)
	}

	stale := []string{}
	for _, e := range entries {
		if e.IsDir() && !fresh[e.Name()] {
			stale = append(stale, e.Name())
		}
	}
	sort.Strings(stale)

	for _, slug := range stale {
		dir := filepath.Join(assetsRoot, slug)
		p.logf("Pruning: %s/", dir)
		if err := os.RemoveAll(dir); err != nil {
			return pruned, fmt.Errorf("postdump: failed to delete %s: %w", dir, err)
		}
	}

	return pruned, nil
}
