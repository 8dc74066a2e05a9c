// Package revision determines the commit that triggered a publish run.
package revision

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
)

// EnvVars are the CI variables consulted, in order, when no revision is given.
var EnvVars = []string{"GITHUB_SHA", "CI_COMMIT_SHA"}

// Resolver finds the revision of a working tree.
type Resolver struct {
	// FS is the working tree; its .git directory is read for HEAD
	FS billy.Filesystem

	// Getenv reads environment variables; nil disables the CI lookup
	Getenv func(string) string
}

// Resolve returns explicit when set, otherwise the first CI variable that is
// set, otherwise the commit at HEAD of the working tree. The error matches
// errors.ErrMissingRevision when none is available.
func (r Resolver) Resolve(explicit string) (string, error) {
	if rev := strings.TrimSpace(explicit); rev != "" {
		return rev, nil
	}

	if r.Getenv != nil {
		for _, name := range EnvVars {
			if rev := strings.TrimSpace(r.Getenv(name)); rev != "" {
				return rev, nil
			}
		}
	}

	if r.FS == nil {
		return "", errors.ErrMissingRevision
	}

	rev, err := Head(r.FS)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrMissingRevision, err)
	}
	return rev, nil
}

// Head returns the commit hash HEAD points to in the repository rooted at fs.
func Head(fs billy.Filesystem) (string, error) {
	dotGit, err := fs.Chroot(".git")
	if err != nil {
		return "", fmt.Errorf("failed to access .git directory: %w", err)
	}

	storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, fs)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
