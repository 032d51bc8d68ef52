// Package gittest builds bare repositories for tests by writing objects
// straight into go-git's object storage.
package gittest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// DefaultBranch is the branch HEAD points to in a new repository.
const DefaultBranch = "master"

// Epoch is the time of the first commit written by a Repo.
var Epoch = time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)

// Repo is a bare repository under construction.
type Repo struct {
	Path string

	t     testing.TB
	repo  *gogit.Repository
	clock time.Time
}

// Init creates a bare repository at path, creating parent directories as
// needed.
func Init(t testing.TB, path string) *Repo {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	repo, err := gogit.PlainInit(path, true)
	require.NoError(t, err)

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))
	require.NoError(t, repo.Storer.SetReference(head))

	return &Repo{Path: path, t: t, repo: repo, clock: Epoch}
}

type commitConfig struct {
	author     object.Signature
	committer  *object.Signature
	parents    []plumbing.Hash
	hasParents bool
	branch     string
	when       *time.Time
}

// CommitOption customises a commit written by Repo.Commit.
type CommitOption func(*commitConfig)

// WithAuthor sets the author name and email.
func WithAuthor(name, email string) CommitOption {
	return func(c *commitConfig) {
		c.author.Name = name
		c.author.Email = email
	}
}

// WithCommitter sets the committer name and email. By default the
// committer is the author.
func WithCommitter(name, email string) CommitOption {
	return func(c *commitConfig) {
		c.committer = &object.Signature{Name: name, Email: email}
	}
}

// WithParents overrides the parents. By default the parent is the tip of
// the target branch, if it exists.
func WithParents(parents ...plumbing.Hash) CommitOption {
	return func(c *commitConfig) {
		c.parents = parents
		c.hasParents = true
	}
}

// WithBranch writes the commit to branch instead of DefaultBranch.
func WithBranch(branch string) CommitOption {
	return func(c *commitConfig) {
		c.branch = branch
	}
}

// WithTime sets both signature times instead of advancing the clock.
func WithTime(when time.Time) CommitOption {
	return func(c *commitConfig) {
		c.when = &when
	}
}

// Commit writes a commit whose tree holds exactly files, keyed by slash
// separated path, and moves the target branch to it.
func (r *Repo) Commit(message string, files map[string]string, opts ...CommitOption) plumbing.Hash {
	r.t.Helper()

	config := commitConfig{
		author: object.Signature{Name: "Some User", Email: "some@example.com"},
		branch: DefaultBranch,
	}
	for _, opt := range opts {
		opt(&config)
	}

	committer := config.author
	if config.committer != nil {
		committer = *config.committer
	}

	when := r.clock
	if config.when != nil {
		when = *config.when
	} else {
		r.clock = r.clock.Add(time.Minute)
	}
	config.author.When = when
	committer.When = when

	branch := plumbing.NewBranchReferenceName(config.branch)
	if !config.hasParents {
		tip, err := r.repo.Storer.Reference(branch)
		switch {
		case errors.Is(err, plumbing.ErrReferenceNotFound):
		case err != nil:
			require.NoError(r.t, err)
		default:
			config.parents = []plumbing.Hash{tip.Hash()}
		}
	}

	commit := &object.Commit{
		Author:       config.author,
		Committer:    committer,
		Message:      message,
		TreeHash:     r.Tree(files),
		ParentHashes: config.parents,
	}

	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, commit.Encode(obj))
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)

	require.NoError(r.t, r.repo.Storer.SetReference(plumbing.NewHashReference(branch, hash)))

	return hash
}

// Blob writes content as a blob.
func (r *Repo) Blob(content string) plumbing.Hash {
	r.t.Helper()

	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	w, err := obj.Writer()
	require.NoError(r.t, err)
	_, err = io.WriteString(w, content)
	require.NoError(r.t, err)
	require.NoError(r.t, w.Close())

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)

	return hash
}

type treeNode struct {
	files map[string]string
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{files: map[string]string{}, dirs: map[string]*treeNode{}}
}

// Tree writes the nested trees for files and returns the root tree.
func (r *Repo) Tree(files map[string]string) plumbing.Hash {
	r.t.Helper()

	root := newTreeNode()
	for p, content := range files {
		parts := strings.Split(p, "/")
		node := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.dirs[dir]
			if !ok {
				child = newTreeNode()
				node.dirs[dir] = child
			}
			node = child
		}
		node.files[parts[len(parts)-1]] = content
	}

	return r.writeTree(root, nil)
}

// TreeWithEntries writes a tree holding files plus extra raw entries, such
// as submodule links, at the top level.
func (r *Repo) TreeWithEntries(files map[string]string, extra ...object.TreeEntry) plumbing.Hash {
	r.t.Helper()

	root := newTreeNode()
	for name, content := range files {
		root.files[name] = content
	}
	return r.writeTree(root, extra)
}

// CommitTree writes a commit pointing at an existing tree on the default
// branch.
func (r *Repo) CommitTree(message string, tree plumbing.Hash) plumbing.Hash {
	r.t.Helper()

	sig := object.Signature{Name: "Some User", Email: "some@example.com", When: r.clock}
	r.clock = r.clock.Add(time.Minute)

	commit := &object.Commit{Author: sig, Committer: sig, Message: message, TreeHash: tree}

	branch := plumbing.NewBranchReferenceName(DefaultBranch)
	if tip, err := r.repo.Storer.Reference(branch); err == nil {
		commit.ParentHashes = []plumbing.Hash{tip.Hash()}
	}

	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, commit.Encode(obj))
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)

	require.NoError(r.t, r.repo.Storer.SetReference(plumbing.NewHashReference(branch, hash)))
	return hash
}

func (r *Repo) writeTree(node *treeNode, extra []object.TreeEntry) plumbing.Hash {
	entries := append([]object.TreeEntry{}, extra...)
	for name, content := range node.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: r.Blob(content)})
	}
	for name, child := range node.dirs {
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: r.writeTree(child, nil)})
	}

	// Git orders entries as if directory names ended in a slash.
	sort.Slice(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, tree.Encode(obj))
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)

	return hash
}

func sortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// Branch points refs/heads/name at target.
func (r *Repo) Branch(name string, target plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), target)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// LightweightTag points refs/tags/name at target.
func (r *Repo) LightweightTag(name string, target plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), target)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// AnnotatedTag writes a tag object for target, which may itself be a tag,
// points refs/tags/name at it and returns the tag object's id.
func (r *Repo) AnnotatedTag(name string, target plumbing.Hash) plumbing.Hash {
	r.t.Helper()

	targetObj, err := r.repo.Storer.EncodedObject(plumbing.AnyObject, target)
	require.NoError(r.t, err)

	tag := &object.Tag{
		Name:       name,
		Tagger:     object.Signature{Name: "Some User", Email: "some@example.com", When: r.clock},
		Message:    "tag " + name + "\n",
		TargetType: targetObj.Type(),
		Target:     target,
	}

	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, tag.Encode(obj))
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)

	r.LightweightTag(name, hash)
	return hash
}

// SymbolicRef makes the full reference name point at target.
func (r *Repo) SymbolicRef(name, target string) {
	r.t.Helper()
	ref := plumbing.NewSymbolicReference(plumbing.ReferenceName(name), plumbing.ReferenceName(target))
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// Ref writes a hash reference with an arbitrary full name.
func (r *Repo) Ref(name string, target plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), target)))
}
