package git_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uggedal/gitoff/internal"
	"github.com/uggedal/gitoff/internal/git"
	"github.com/uggedal/gitoff/internal/git/gittest"
)

func TestDiscover(t *testing.T) {
	opts := git.DiscoverOptions{MaxDepth: 3, NameMax: 64}

	setup := func(t *testing.T) (string, *bytes.Buffer, internal.Writer) {
		root := t.TempDir()
		buffer := bytes.NewBuffer(nil)
		return root, buffer, internal.NewCustomWriter(buffer, buffer)
	}

	names := func(reg git.Registry) []string {
		var result []string
		for _, repo := range reg {
			result = append(result, repo.Name)
		}
		return result
	}

	t.Run("finds repositories up to three levels below the root", func(t *testing.T) {
		root, _, w := setup(t)

		gittest.Init(t, filepath.Join(root, "a"))
		gittest.Init(t, filepath.Join(root, "group", "b"))
		gittest.Init(t, filepath.Join(root, "x", "y", "c"))
		gittest.Init(t, filepath.Join(root, "x", "y", "z", "d"))

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a", "group/b", "x/y/c"}, names(reg))

		for _, repo := range reg {
			require.Equal(t, filepath.Join(root, filepath.FromSlash(repo.Name)), repo.Path)
		}
	})

	t.Run("honours a smaller depth", func(t *testing.T) {
		root, _, w := setup(t)

		gittest.Init(t, filepath.Join(root, "a"))
		gittest.Init(t, filepath.Join(root, "group", "b"))

		reg, err := git.Discover(root, git.DiscoverOptions{MaxDepth: 1, NameMax: 64}, w)
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, names(reg))
	})

	t.Run("does not descend into a repository", func(t *testing.T) {
		root, _, w := setup(t)

		gittest.Init(t, filepath.Join(root, "outer"))
		gittest.Init(t, filepath.Join(root, "outer", "nested"))

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.Equal(t, []string{"outer"}, names(reg))
	})

	t.Run("requires HEAD, objects and refs", func(t *testing.T) {
		root, _, w := setup(t)

		layout := func(name string, head, objects, refs bool) {
			dir := filepath.Join(root, name)
			require.NoError(t, os.MkdirAll(dir, 0o755))
			if head {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/master\n"), 0o644))
			}
			if objects {
				require.NoError(t, os.Mkdir(filepath.Join(dir, "objects"), 0o755))
			}
			if refs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, "refs"), 0o755))
			}
		}

		layout("complete", true, true, true)
		layout("no-head", false, true, true)
		layout("no-objects", true, false, true)
		layout("no-refs", true, true, false)

		dirHead := filepath.Join(root, "head-is-dir")
		require.NoError(t, os.MkdirAll(filepath.Join(dirHead, "HEAD"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(dirHead, "objects"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(dirHead, "refs"), 0o755))

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.Equal(t, []string{"complete"}, names(reg))
	})

	t.Run("ignores plain files in the scan directory", func(t *testing.T) {
		root, _, w := setup(t)

		require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o644))
		gittest.Init(t, filepath.Join(root, "a"))

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, names(reg))
	})

	t.Run("follows symlinked directories", func(t *testing.T) {
		root, _, w := setup(t)

		target := filepath.Join(t.TempDir(), "elsewhere")
		gittest.Init(t, target)
		require.NoError(t, os.Symlink(target, filepath.Join(root, "linked")))

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.Equal(t, []string{"linked"}, names(reg))
	})

	t.Run("skips names longer than the maximum", func(t *testing.T) {
		root, buffer, w := setup(t)

		gittest.Init(t, filepath.Join(root, "short"))
		gittest.Init(t, filepath.Join(root, "muchtoolong"))

		reg, err := git.Discover(root, git.DiscoverOptions{MaxDepth: 3, NameMax: 5}, w)
		require.NoError(t, err)
		require.Equal(t, []string{"short"}, names(reg))
		require.Contains(t, buffer.String(), `Warning: skipping repository "muchtoolong": name is longer than 5 bytes`)
	})

	t.Run("returns an empty registry for an empty root", func(t *testing.T) {
		root, _, w := setup(t)

		reg, err := git.Discover(root, opts, w)
		require.NoError(t, err)
		require.Empty(t, reg)
	})

	t.Run("warns about a missing root", func(t *testing.T) {
		root, buffer, w := setup(t)
		missing := filepath.Join(root, "nope")

		reg, err := git.Discover(missing, opts, w)
		require.NoError(t, err)
		require.Empty(t, reg)
		require.Contains(t, buffer.String(), "does not exist")
	})

	t.Run("failure cases", func(t *testing.T) {
		t.Run("when a directory cannot be read", func(t *testing.T) {
			if os.Geteuid() == 0 {
				t.Skip("permission checks do not apply to root")
			}

			root, _, w := setup(t)
			locked := filepath.Join(root, "locked")
			require.NoError(t, os.Mkdir(locked, 0o000))
			t.Cleanup(func() {
				os.Chmod(locked, 0o755)
			})

			_, err := git.Discover(root, opts, w)
			require.ErrorIs(t, err, fs.ErrPermission)
		})
	})
}
