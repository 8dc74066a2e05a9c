package revision

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
)

// initRepo creates a repository in fs and returns it.
func initRepo(t *testing.T, fs billy.Filesystem) *git.Repository {
	t.Helper()

	dotGit, err := fs.Chroot(".git")
	require.NoError(t, err)

	repo, err := git.Init(filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault()), fs)
	require.NoError(t, err)
	return repo
}

// commitFile writes name and commits it, returning the commit hash.
func commitFile(t *testing.T, fs billy.Filesystem, repo *git.Repository, name string) string {
	t.Helper()

	require.NoError(t, util.WriteFile(fs, name, []byte(name), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func env(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestResolve_Order(t *testing.T) {
	fs := memfs.New()
	repo := initRepo(t, fs)
	head := commitFile(t, fs, repo, "index.html")

	tests := []struct {
		name     string
		explicit string
		env      map[string]string
		want     string
	}{
		{
			name:     "explicit wins",
			explicit: "abc123",
			env:      map[string]string{"GITHUB_SHA": "gh"},
			want:     "abc123",
		},
		{
			name: "github before gitlab",
			env:  map[string]string{"GITHUB_SHA": "gh", "CI_COMMIT_SHA": "gl"},
			want: "gh",
		},
		{
			name: "gitlab",
			env:  map[string]string{"CI_COMMIT_SHA": " gl "},
			want: "gl",
		},
		{
			name:     "blank values fall through to HEAD",
			explicit: "  ",
			env:      map[string]string{"GITHUB_SHA": ""},
			want:     head,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolver{FS: fs, Getenv: env(tt.env)}.Resolve(tt.explicit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHead_FollowsLatestCommit(t *testing.T) {
	fs := memfs.New()
	repo := initRepo(t, fs)
	commitFile(t, fs, repo, "a.txt")
	second := commitFile(t, fs, repo, "b.txt")

	got, err := Head(fs)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestResolve_Missing(t *testing.T) {
	t.Run("no repository", func(t *testing.T) {
		_, err := Resolver{FS: memfs.New()}.Resolve("")
		require.Error(t, err)
		assert.True(t, errors.IsMissingRevision(err))
	})

	t.Run("repository without commits", func(t *testing.T) {
		fs := memfs.New()
		initRepo(t, fs)

		_, err := Resolver{FS: fs}.Resolve("")
		assert.True(t, errors.IsMissingRevision(err))
	})

	t.Run("no filesystem", func(t *testing.T) {
		_, err := Resolver{}.Resolve("")
		assert.ErrorIs(t, err, errors.ErrMissingRevision)
	})
}
