package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// LineClass is the origin of a line in a unified diff.
type LineClass int

const (
	LinePlain LineClass = iota
	LineContext
	LineAddition
	LineDeletion
	LineFileHeader
	LineHunkHeader
)

// DiffLine is a line of a unified diff. A file header spans several
// physical lines and carries the index of its file in Diff.Files.
type DiffLine struct {
	Class LineClass
	File  int
	Text  string
}

// FileStat summarises the change to one file.
type FileStat struct {
	OldPath string
	NewPath string
	Binary  bool

	// Added and Deleted count lines of text files.
	Added   int
	Deleted int

	// OldSize and NewSize are byte sizes of binary files.
	OldSize int64
	NewSize int64
}

// Renamed reports whether the file moved.
func (f FileStat) Renamed() bool {
	return f.OldPath != f.NewPath
}

// Diff is the change a commit introduces relative to its first parent.
type Diff struct {
	Files []FileStat
	Lines []DiffLine
}

// Totals sums added and deleted lines over all text files.
func (d Diff) Totals() (added, deleted int) {
	for _, f := range d.Files {
		added += f.Added
		deleted += f.Deleted
	}
	return added, deleted
}

// diff compares the commit's tree with its first parent's tree, or with
// the empty tree for a root commit, detecting renames.
func (h *Handle) diff(ctx context.Context, commit *object.Commit) (Diff, error) {
	tree, err := commit.Tree()
	if err != nil {
		return Diff{}, fmt.Errorf("failed to read tree of commit %s in %q: %w", commit.Hash, h.Path, err)
	}

	parentTree := &object.Tree{}
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return Diff{}, fmt.Errorf("failed to look up parent of commit %s in %q: %w", commit.Hash, h.Path, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return Diff{}, fmt.Errorf("failed to read tree of commit %s in %q: %w", parent.Hash, h.Path, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to diff commit %s in %q: %w", commit.Hash, h.Path, err)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to compute patch for commit %s in %q: %w", commit.Hash, h.Path, err)
	}

	var files []FileStat
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		if from == nil && to == nil {
			continue
		}
		stat, err := h.fileStat(fp)
		if err != nil {
			return Diff{}, err
		}
		files = append(files, stat)
	}

	var buf bytes.Buffer
	if err := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(patch); err != nil {
		return Diff{}, fmt.Errorf("failed to encode patch for commit %s in %q: %w", commit.Hash, h.Path, err)
	}

	return Diff{Files: files, Lines: classifyLines(buf.String())}, nil
}

func (h *Handle) fileStat(fp fdiff.FilePatch) (FileStat, error) {
	from, to := fp.Files()

	var stat FileStat
	if from != nil {
		stat.OldPath = from.Path()
	}
	if to != nil {
		stat.NewPath = to.Path()
	}
	if from == nil {
		stat.OldPath = stat.NewPath
	}
	if to == nil {
		stat.NewPath = stat.OldPath
	}

	if fp.IsBinary() {
		var err error
		stat.Binary = true
		if stat.OldSize, err = h.fileSize(from); err != nil {
			return FileStat{}, err
		}
		if stat.NewSize, err = h.fileSize(to); err != nil {
			return FileStat{}, err
		}
		return stat, nil
	}

	for _, chunk := range fp.Chunks() {
		switch chunk.Type() {
		case fdiff.Add:
			stat.Added += countLines(chunk.Content())
		case fdiff.Delete:
			stat.Deleted += countLines(chunk.Content())
		}
	}

	return stat, nil
}

func (h *Handle) fileSize(f fdiff.File) (int64, error) {
	if f == nil {
		return 0, nil
	}
	return h.blobSize(f.Hash())
}

// countLines counts lines in a chunk, including a final line without a
// newline.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}

// classifyLines splits a unified diff into lines tagged by origin. Each
// file header, from "diff --git" up to its first hunk, becomes a single
// line numbered in file order.
func classifyLines(text string) []DiffLine {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	var (
		lines  []DiffLine
		header []string
		files  int
		inHunk bool
	)

	flush := func() {
		if header == nil {
			return
		}
		lines = append(lines, DiffLine{Class: LineFileHeader, File: files, Text: strings.Join(header, "\n")})
		files++
		header = nil
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			header = []string{line}
			inHunk = false
		case strings.HasPrefix(line, "@@"):
			flush()
			lines = append(lines, DiffLine{Class: LineHunkHeader, File: -1, Text: line})
			inHunk = true
		case header != nil:
			header = append(header, line)
		case !inHunk:
			lines = append(lines, DiffLine{Class: LinePlain, File: -1, Text: line})
		default:
			lines = append(lines, DiffLine{Class: hunkLineClass(line, lines), File: -1, Text: line})
		}
	}
	flush()

	return lines
}

func hunkLineClass(line string, previous []DiffLine) LineClass {
	if line == "" {
		return LineContext
	}

	switch line[0] {
	case '+':
		return LineAddition
	case '-':
		return LineDeletion
	case ' ':
		return LineContext
	case '\\':
		// "\ No newline at end of file" belongs to the line before it.
		if n := len(previous); n > 0 {
			if c := previous[n-1].Class; c == LineAddition || c == LineDeletion {
				return c
			}
		}
	}
	return LinePlain
}
