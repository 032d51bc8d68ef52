package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// RefKind classifies a reference by its name.
type RefKind int

const (
	Branch RefKind = iota
	Tag
)

// String returns the label shown in the refs table.
func (k RefKind) String() string {
	if k == Tag {
		return "Tag"
	}
	return "Branch"
}

// Ref is a branch or tag with the id of the object it finally designates.
type Ref struct {
	Name   string
	Target string
	Kind   RefKind
}

// Refs lists branches and tags in the order the object store enumerates
// them. Symbolic references are followed one level and annotated tags
// are peeled to the object they tag.
func (h *Handle) Refs() ([]Ref, error) {
	iter, err := h.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references of %q: %w", h.Path, err)
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		var kind RefKind
		switch {
		case ref.Name().IsBranch():
			kind = Branch
		case ref.Name().IsTag():
			kind = Tag
		default:
			return nil
		}

		target := ref
		if ref.Type() == plumbing.SymbolicReference {
			resolved, err := h.repo.Reference(ref.Target(), false)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", ref.Name(), err)
			}
			if resolved.Type() != plumbing.HashReference {
				return nil
			}
			target = resolved
		}

		hash, err := h.peel(target.Hash())
		if err != nil {
			return err
		}

		refs = append(refs, Ref{Name: ref.Name().Short(), Target: hash.String(), Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read references of %q: %w", h.Path, err)
	}

	return refs, nil
}

// peel follows annotated tags until it reaches an object that is not a
// tag.
func (h *Handle) peel(hash plumbing.Hash) (plumbing.Hash, error) {
	for {
		tag, err := h.repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return hash, nil
		}
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to peel %s: %w", hash, err)
		}
		hash = tag.Target
	}
}
