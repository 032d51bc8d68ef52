package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
)

// EntryKind is the kind of a listed tree entry.
type EntryKind int

const (
	KindBlob EntryKind = iota
	KindTree
)

// TreeEntry is one row of a directory listing.
type TreeEntry struct {
	Name string
	Kind EntryKind
	Size int64
}

// Blob is the content of a file.
type Blob struct {
	Name    string
	Content []byte
	Binary  bool
}

// TreeView is what a path in the HEAD tree resolves to: a directory
// listing, a blob, or nothing.
type TreeView struct {
	// Path is the path below the root tree, without leading or trailing
	// slashes. The root tree has an empty path.
	Path string

	// Missing is set when Path does not name a tree or blob.
	Missing bool

	Entries []TreeEntry
	Blob    *Blob
}

// IsRoot reports whether the view is the root tree.
func (v TreeView) IsRoot() bool {
	return v.Path == ""
}

// Parent returns the path of the directory containing Path. The parent of
// a top level entry is the root, the empty path.
func (v TreeView) Parent() string {
	parent := path.Dir(v.Path)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// Tree resolves p in the HEAD tree. Surrounding slashes are ignored. A
// path that does not exist is not an error; it yields a view with Missing
// set.
func (h *Handle) Tree(p string) (TreeView, error) {
	p = strings.Trim(p, "/")

	head, err := h.head()
	if err != nil {
		return TreeView{}, err
	}

	root, err := head.Tree()
	if err != nil {
		return TreeView{}, fmt.Errorf("failed to read tree of commit %s in %q: %w", head.Hash, h.Path, err)
	}

	view := TreeView{Path: p}
	if p == "" {
		view.Entries, err = h.listTree(root)
		return view, err
	}

	entry, err := root.FindEntry(p)
	if err != nil {
		if isMissingPath(err) {
			view.Missing = true
			return view, nil
		}
		return TreeView{}, fmt.Errorf("failed to look up %q in %q: %w", p, h.Path, err)
	}

	switch {
	case entry.Mode == filemode.Dir:
		tree, err := h.repo.TreeObject(entry.Hash)
		if err != nil {
			return TreeView{}, fmt.Errorf("failed to read tree %s in %q: %w", entry.Hash, h.Path, err)
		}
		view.Entries, err = h.listTree(tree)
		if err != nil {
			return TreeView{}, err
		}
	case entry.Mode.IsFile():
		view.Blob, err = h.blob(entry.Name, entry.Hash)
		if err != nil {
			return TreeView{}, err
		}
	default:
		// Submodules and other entries have nothing to browse.
		view.Missing = true
	}

	return view, nil
}

func isMissingPath(err error) bool {
	return errors.Is(err, object.ErrEntryNotFound) ||
		errors.Is(err, object.ErrDirectoryNotFound) ||
		errors.Is(err, plumbing.ErrObjectNotFound)
}

func (h *Handle) listTree(tree *object.Tree) ([]TreeEntry, error) {
	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		switch {
		case e.Mode == filemode.Dir:
			entries = append(entries, TreeEntry{Name: e.Name, Kind: KindTree})
		case e.Mode.IsFile():
			size, err := h.blobSize(e.Hash)
			if err != nil {
				return nil, err
			}
			entries = append(entries, TreeEntry{Name: e.Name, Kind: KindBlob, Size: size})
		}
	}
	return entries, nil
}

func (h *Handle) blobSize(hash plumbing.Hash) (int64, error) {
	blob, err := h.repo.BlobObject(hash)
	if err != nil {
		return 0, fmt.Errorf("failed to read blob %s in %q: %w", hash, h.Path, err)
	}
	return blob.Size, nil
}

func (h *Handle) blob(name string, hash plumbing.Hash) (*Blob, error) {
	blob, err := h.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s in %q: %w", hash, h.Path, err)
	}

	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s in %q: %w", hash, h.Path, err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s in %q: %w", hash, h.Path, err)
	}

	isBinary, err := binary.IsBinary(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to classify blob %s in %q: %w", hash, h.Path, err)
	}

	return &Blob{Name: name, Content: content, Binary: isBinary}, nil
}
