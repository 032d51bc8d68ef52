package git

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature is an author or committer. When carries the signature's own
// time zone.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Equal reports whether both signatures name the same person.
func (s Signature) Equal(other Signature) bool {
	return s.Name == other.Name && s.Email == other.Email
}

// CommitDetail is everything the commit page shows.
type CommitDetail struct {
	ID        string
	Author    Signature
	Committer Signature
	Parents   []string
	Message   string
	Diff      Diff
}

// ShowCommitter reports whether the committer differs from the author.
func (c CommitDetail) ShowCommitter() bool {
	return !c.Committer.Equal(c.Author)
}

// Commit resolves rev and describes the commit it names, including its
// diff against the first parent. An unknown revision yields ErrNotFound.
func (h *Handle) Commit(ctx context.Context, rev string) (CommitDetail, error) {
	hash, err := h.resolve(rev)
	if err != nil {
		return CommitDetail{}, err
	}

	commit, err := h.commit(hash)
	if err != nil {
		return CommitDetail{}, err
	}

	return h.detail(ctx, commit)
}

// HeadCommit describes the commit HEAD points to.
func (h *Handle) HeadCommit(ctx context.Context) (CommitDetail, error) {
	commit, err := h.head()
	if err != nil {
		return CommitDetail{}, err
	}

	return h.detail(ctx, commit)
}

func (h *Handle) detail(ctx context.Context, commit *object.Commit) (CommitDetail, error) {
	parents := make([]string, 0, len(commit.ParentHashes))
	for _, parent := range commit.ParentHashes {
		parents = append(parents, parent.String())
	}

	diff, err := h.diff(ctx, commit)
	if err != nil {
		return CommitDetail{}, err
	}

	return CommitDetail{
		ID:        commit.Hash.String(),
		Author:    newSignature(commit.Author),
		Committer: newSignature(commit.Committer),
		Parents:   parents,
		Message:   commit.Message,
		Diff:      diff,
	}, nil
}

func newSignature(sig object.Signature) Signature {
	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}
