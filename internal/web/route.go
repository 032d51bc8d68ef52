package web

import (
	"strings"

	"github.com/uggedal/gitoff/internal/git"
)

// View is the page a request path selects.
type View int

const (
	ViewNotFound View = iota
	ViewIndex
	ViewSummary
	ViewLog
	ViewTree
	ViewCommit
)

var viewNames = map[View]string{
	ViewNotFound: "notfound",
	ViewIndex:    "index",
	ViewSummary:  "summary",
	ViewLog:      "log",
	ViewTree:     "tree",
	ViewCommit:   "commit",
}

// String names the view. The name is also the page's body id.
func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "unknown"
}

// Request is a tokenized request path.
type Request struct {
	View View

	// Repo is the matched repository for every view but Index and
	// NotFound.
	Repo git.Repository

	// Arg is the revision for Log and Commit and the tree path for Tree.
	Arg string
}

// Route tokenizes a request path of the form /<repo>[/<view>[/<arg>]].
// The first repository in registry order whose name is followed by the
// end of the path or a slash is chosen. One trailing slash is ignored.
func Route(path string, reg git.Registry) Request {
	if path == "" || path[0] != '/' {
		return Request{View: ViewNotFound}
	}
	if path == "/" {
		return Request{View: ViewIndex}
	}

	repo, rest, ok := reg.Lookup(path[1:])
	if !ok {
		return Request{View: ViewNotFound}
	}

	rest = strings.TrimSuffix(rest, "/")

	if rest == "" || rest == "/" {
		return Request{View: ViewSummary, Repo: repo}
	}
	if arg, ok := cutView(rest, "l"); ok {
		return Request{View: ViewLog, Repo: repo, Arg: arg}
	}
	if arg, ok := cutView(rest, "t"); ok {
		return Request{View: ViewTree, Repo: repo, Arg: arg}
	}
	if arg, ok := strings.CutPrefix(rest, "/c/"); ok && arg != "" {
		return Request{View: ViewCommit, Repo: repo, Arg: arg}
	}

	return Request{View: ViewNotFound}
}

// cutView matches "/<token>" or "/<token>/<arg>".
func cutView(rest, token string) (string, bool) {
	rest, ok := strings.CutPrefix(rest, "/"+token)
	if !ok {
		return "", false
	}
	if rest == "" {
		return "", true
	}
	return strings.CutPrefix(rest, "/")
}
