package git

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// AbbrevLength is the number of hex digits shown for abbreviated ids.
const AbbrevLength = 7

// Repository is a bare repository found by Discover.
type Repository struct {
	// Path is the absolute path of the repository directory.
	Path string

	// Name is Path relative to the scan root. It is the URL prefix and
	// the display name of the repository.
	Name string
}

// Handle is an open repository. It must be closed by the operation that
// opened it.
type Handle struct {
	Repository
	repo *gogit.Repository
}

// Open opens the repository's object store. Discovery already validated
// the layout, so a failure here means the repository changed underneath
// us or is corrupt.
func (r Repository) Open() (*Handle, error) {
	repo, err := gogit.PlainOpenWithOptions(r.Path, &gogit.PlainOpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", r.Path, err)
	}

	return &Handle{Repository: r, repo: repo}, nil
}

// Close releases file descriptors held by the object store.
func (h *Handle) Close() error {
	if closer, ok := h.repo.Storer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close repository %q: %w", h.Path, err)
		}
	}
	return nil
}

// Age returns the committer time of the commit HEAD points to.
func (h *Handle) Age() (time.Time, error) {
	commit, err := h.head()
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

func (h *Handle) head() (*object.Commit, error) {
	ref, err := h.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD of %q: %w", h.Path, err)
	}

	commit, err := h.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to look up HEAD commit %s of %q: %w", ref.Hash(), h.Path, err)
	}

	return commit, nil
}

// resolve turns a client supplied revision expression (full or short
// hash, ref name, HEAD~2 and friends) into a commit hash. The revision is
// request data, so any failure is reported as ErrNotFound.
func (h *Handle) resolve(rev string) (plumbing.Hash, error) {
	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("revision %q: %w (%v)", rev, ErrNotFound, err)
	}
	return *hash, nil
}

func (h *Handle) commit(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("commit %s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up commit %s in %q: %w", hash, h.Path, err)
	}
	return commit, nil
}

// IndexEntry is one row of the repository index.
type IndexEntry struct {
	Repository
	Age time.Time
}

// Index opens every repository to read its age and returns the registry
// ordered by descending age. Repositories of equal age keep their
// discovery order. A repository without a resolvable HEAD fails the
// whole index.
func (r Registry) Index() ([]IndexEntry, error) {
	entries := make([]IndexEntry, 0, len(r))
	for _, repo := range r {
		age, err := repositoryAge(repo)
		if err != nil {
			return nil, err
		}
		entries = append(entries, IndexEntry{Repository: repo, Age: age})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Age.After(entries[j].Age)
	})

	return entries, nil
}

func repositoryAge(repo Repository) (time.Time, error) {
	h, err := repo.Open()
	if err != nil {
		return time.Time{}, err
	}
	defer h.Close()

	return h.Age()
}

// Lookup returns the first repository whose name prefixes path and is
// followed by the end of path or a slash. Registry order breaks ties.
func (r Registry) Lookup(path string) (Repository, string, bool) {
	for _, repo := range r {
		rest, ok := cutName(path, repo.Name)
		if ok {
			return repo, rest, true
		}
	}
	return Repository{}, "", false
}

func cutName(path, name string) (string, bool) {
	if len(path) < len(name) || path[:len(name)] != name {
		return "", false
	}
	rest := path[len(name):]
	if rest != "" && rest[0] != '/' {
		return "", false
	}
	return rest, true
}
