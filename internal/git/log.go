package git

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// LogOptions selects which commits Log returns.
type LogOptions struct {
	// Revision is where the walk starts. Empty means HEAD.
	Revision string

	// Limit stops the walk after this many commits, without pagination.
	// Zero means paginate by PageSize instead.
	Limit int

	// PageSize is the number of commits per page when Limit is zero.
	PageSize int
}

// LogEntry is one commit in a log listing.
type LogEntry struct {
	ID      string
	Subject string
	Author  string
	When    time.Time
}

// LogPage is a page of history in committer time order.
type LogPage struct {
	Entries []LogEntry

	// Next is the id of the first commit after this page, or empty when
	// the history ends on this page or the walk was limited.
	Next string
}

// Log walks history from opts.Revision, newest committer time first.
func (h *Handle) Log(opts LogOptions) (LogPage, error) {
	var from plumbing.Hash
	if opts.Revision != "" {
		hash, err := h.resolve(opts.Revision)
		if err != nil {
			return LogPage{}, err
		}
		from = hash
	} else {
		commit, err := h.head()
		if err != nil {
			return LogPage{}, err
		}
		from = commit.Hash
	}

	iter, err := h.repo.Log(&gogit.LogOptions{From: from, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return LogPage{}, fmt.Errorf("failed to walk history of %q from %s: %w", h.Path, from, err)
	}
	defer iter.Close()

	var page LogPage
	for {
		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return LogPage{}, fmt.Errorf("failed to walk history of %q: %w", h.Path, err)
		}

		if opts.Limit > 0 {
			if len(page.Entries) >= opts.Limit {
				break
			}
		} else if len(page.Entries) >= opts.PageSize {
			page.Next = commit.Hash.String()
			break
		}

		page.Entries = append(page.Entries, newLogEntry(commit))
	}

	return page, nil
}

func newLogEntry(commit *object.Commit) LogEntry {
	return LogEntry{
		ID:      commit.Hash.String(),
		Subject: Subject(commit.Message),
		Author:  commit.Author.Name,
		When:    commit.Committer.When,
	}
}

// Subject returns the first line of a commit message.
func Subject(message string) string {
	subject, _, _ := strings.Cut(message, "\n")
	return strings.TrimRight(subject, "\r")
}
