package web_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uggedal/gitoff/internal/git"
	"github.com/uggedal/gitoff/internal/web"
)

func TestRoute(t *testing.T) {
	a := git.Repository{Name: "a", Path: "/srv/git/a"}
	ab := git.Repository{Name: "ab", Path: "/srv/git/ab"}
	nested := git.Repository{Name: "group/repo", Path: "/srv/git/group/repo"}
	reg := git.Registry{a, ab, nested}

	for _, tc := range []struct {
		path string
		want web.Request
	}{
		{"", web.Request{View: web.ViewNotFound}},
		{"a", web.Request{View: web.ViewNotFound}},
		{"/", web.Request{View: web.ViewIndex}},
		{"/nope", web.Request{View: web.ViewNotFound}},
		{"/abc", web.Request{View: web.ViewNotFound}},

		{"/a", web.Request{View: web.ViewSummary, Repo: a}},
		{"/a/", web.Request{View: web.ViewSummary, Repo: a}},
		{"/a//", web.Request{View: web.ViewSummary, Repo: a}},
		{"/ab", web.Request{View: web.ViewSummary, Repo: ab}},
		{"/ab/l", web.Request{View: web.ViewLog, Repo: ab}},
		{"/group/repo", web.Request{View: web.ViewSummary, Repo: nested}},

		{"/a/l", web.Request{View: web.ViewLog, Repo: a}},
		{"/a/l/", web.Request{View: web.ViewLog, Repo: a}},
		{"/a/l/master", web.Request{View: web.ViewLog, Repo: a, Arg: "master"}},
		{"/a/l/HEAD~2", web.Request{View: web.ViewLog, Repo: a, Arg: "HEAD~2"}},
		{"/a/lx", web.Request{View: web.ViewNotFound}},

		{"/a/t", web.Request{View: web.ViewTree, Repo: a}},
		{"/a/t/src", web.Request{View: web.ViewTree, Repo: a, Arg: "src"}},
		{"/a/t/src/", web.Request{View: web.ViewTree, Repo: a, Arg: "src"}},
		{"/a/t/with space/file", web.Request{View: web.ViewTree, Repo: a, Arg: "with space/file"}},
		{"/a/tree", web.Request{View: web.ViewNotFound}},

		{"/a/c/0123abc", web.Request{View: web.ViewCommit, Repo: a, Arg: "0123abc"}},
		{"/a/c/0123abc/", web.Request{View: web.ViewCommit, Repo: a, Arg: "0123abc"}},
		{"/a/c", web.Request{View: web.ViewNotFound}},
		{"/a/c/", web.Request{View: web.ViewNotFound}},

		{"/a/x", web.Request{View: web.ViewNotFound}},
		{"/a/b", web.Request{View: web.ViewNotFound}},
	} {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.want, web.Route(tc.path, reg))
		})
	}

	t.Run("prefers registry order among nested names", func(t *testing.T) {
		outer := git.Repository{Name: "x", Path: "/srv/git/x"}
		inner := git.Repository{Name: "x/y", Path: "/srv/git/x/y"}

		require.Equal(t, web.Request{View: web.ViewNotFound}, web.Route("/x/y", git.Registry{outer, inner}))
		require.Equal(t, web.Request{View: web.ViewSummary, Repo: inner}, web.Route("/x/y", git.Registry{inner, outer}))
	})

	t.Run("names views", func(t *testing.T) {
		require.Equal(t, "summary", web.ViewSummary.String())
		require.Equal(t, "notfound", web.ViewNotFound.String())
	})
}
