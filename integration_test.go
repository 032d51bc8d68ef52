//go:build integration
// +build integration

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRepositoryCreatedByGit browses a repository written by the git
// command line tool rather than by go-git, covering packed objects and
// packed refs.
func TestRepositoryCreatedByGit(t *testing.T) {
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("Integration tests skipped")
	}

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	root := t.TempDir()
	work := t.TempDir()

	gitCmd := func(dir string, args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Integration Author",
			"GIT_AUTHOR_EMAIL=author@example.com",
			"GIT_COMMITTER_NAME=Integration Committer",
			"GIT_COMMITTER_EMAIL=committer@example.com",
			"GIT_CONFIG_NOSYSTEM=1",
			"HOME="+work,
		)
		output, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %s: %s", strings.Join(args, " "), output)
		return strings.TrimSpace(string(output))
	}

	gitCmd(work, "init", "--initial-branch=master", ".")
	require.NoError(t, os.WriteFile(filepath.Join(work, "README"), []byte("hello\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(work, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "src", "main.go"), []byte("package main\n"), 0o644))
	gitCmd(work, "add", ".")
	gitCmd(work, "commit", "-m", "initial import")

	require.NoError(t, os.WriteFile(filepath.Join(work, "README"), []byte("hello\nworld\n"), 0o644))
	gitCmd(work, "commit", "-am", "extend readme")
	gitCmd(work, "tag", "-a", "v1.0", "-m", "first release")
	head := gitCmd(work, "rev-parse", "HEAD")

	bare := filepath.Join(root, "projects", "site.git")
	gitCmd(work, "clone", "--bare", work, bare)
	gitCmd(bare, "gc", "--quiet")

	request := func(t *testing.T, path string) string {
		var stdout bytes.Buffer
		err := run([]string{"gitoff", "--scan-dir", root}, []string{"PATH_INFO=" + path}, &stdout)
		require.NoError(t, err)
		return stdout.String()
	}

	t.Run("index lists the clone", func(t *testing.T) {
		out := request(t, "/")
		require.Contains(t, out, "Status: 200 Success")
		require.Contains(t, out, `<a href="/projects/site.git">projects/site.git</a>`)
	})

	t.Run("summary shows refs and the head commit", func(t *testing.T) {
		out := request(t, "/projects/site.git")
		require.Contains(t, out, "<td>v1.0</td>")
		require.Contains(t, out, "<td>extend readme</td>")
		require.Contains(t, out, "<td>initial import</td>")
		require.Contains(t, out, "Integration Committer &lt;committer@example.com&gt;")
		require.Contains(t, out, `<span class="a">+world</span>`)
	})

	t.Run("commit resolves abbreviated ids", func(t *testing.T) {
		out := request(t, "/projects/site.git/c/"+head[:8])
		require.Contains(t, out, "Status: 200 Success")
		require.Contains(t, out, `<td class="b">Parent</td>`)
	})

	t.Run("tree shows blobs from packed objects", func(t *testing.T) {
		out := request(t, "/projects/site.git/t/src/main.go")
		require.Contains(t, out, "package main")
	})
}
