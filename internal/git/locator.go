package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/uggedal/gitoff/internal"
)

// DiscoverOptions bounds a repository scan.
type DiscoverOptions struct {
	// MaxDepth is the deepest directory level below the scan root that is
	// checked for a repository. Children of the root are level 1.
	MaxDepth int

	// NameMax is the longest repository name that is registered. Longer
	// names are skipped with a warning.
	NameMax int
}

// Registry is the set of repositories found by Discover, in discovery
// order.
type Registry []Repository

// Discover scans root for bare repositories. A directory is a repository
// when it holds a HEAD file and objects and refs directories; discovery
// never descends into a repository or below opts.MaxDepth. Directories
// that disappear during the scan are skipped. Any other filesystem error
// is returned, since it means the scan root is misconfigured.
func Discover(root string, opts DiscoverOptions, w internal.Writer) (Registry, error) {
	root = filepath.Clean(root)

	d := discoverer{root: root, opts: opts, writer: w}
	if err := d.walk(root, 0); err != nil {
		return nil, err
	}

	return d.registry, nil
}

type discoverer struct {
	root     string
	opts     DiscoverOptions
	writer   internal.Writer
	registry Registry
}

func (d *discoverer) walk(dir string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if dir == d.root {
				d.writer.Warningf("scan directory %q does not exist", dir)
			}
			return nil
		}
		return fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		isDir, err := hasFile(dir, entry.Name(), true)
		if err != nil {
			return err
		}
		if !isDir {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		ok, err := isRepository(path)
		if err != nil {
			return err
		}
		if ok {
			if err := d.register(path); err != nil {
				return err
			}
			continue
		}

		if depth+1 < d.opts.MaxDepth {
			if err := d.walk(path, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d *discoverer) register(path string) error {
	name, err := repositoryName(d.root, path)
	if err != nil {
		return err
	}

	if d.opts.NameMax > 0 && len(name) > d.opts.NameMax {
		d.writer.Warningf("skipping repository %q: name is longer than %d bytes", name, d.opts.NameMax)
		return nil
	}

	d.registry = append(d.registry, Repository{Path: path, Name: name})
	return nil
}

// repositoryName derives the name a repository is served under: its path
// relative to the scan root, with forward slashes.
func repositoryName(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("repository path %q is not below scan directory %q\nThis is a configuration error", path, root)
	}
	return filepath.ToSlash(rel), nil
}

func isRepository(dir string) (bool, error) {
	checks := []struct {
		name  string
		isDir bool
	}{
		{"objects", true},
		{"HEAD", false},
		{"refs", true},
	}

	for _, check := range checks {
		ok, err := hasFile(dir, check.name, check.isDir)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// hasFile reports whether base/name exists and is a directory (isDir) or a
// regular file. Symlinks are followed. A missing file is not an error.
func hasFile(base, name string, isDir bool) (bool, error) {
	path := filepath.Join(base, name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if isDir {
		return info.IsDir(), nil
	}
	return info.Mode().IsRegular(), nil
}
