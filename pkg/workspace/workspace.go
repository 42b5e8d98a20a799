package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/cuemby/branchd/pkg/log"
)

// InstallFunc installs whatever a worker needs to run, given its
// working directory. The default looks for package.json and runs
// npm ci; callers may supply their own for other runtimes.
type InstallFunc func(ctx context.Context, dir string) error

// DefaultInstall runs `npm ci` if the directory has a package.json,
// otherwise does nothing.
func DefaultInstall(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, "npm", "ci")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("npm ci: %w: %s", err, out)
	}
	return nil
}

// Manager materializes branch working trees under Root.
type Manager struct {
	Root    string
	Install InstallFunc
	Auth    transport.AuthMethod
}

// New builds a Manager rooted at root. A nil install hook defaults to
// DefaultInstall.
func New(root string, install InstallFunc) *Manager {
	if install == nil {
		install = DefaultInstall
	}
	return &Manager{Root: root, Install: install}
}

func (m *Manager) dir(branchHash string) string {
	return filepath.Join(m.Root, branchHash)
}

// EnsureClone clones repoURL at branchName into the branch_hash's
// directory if it does not already exist, then runs the install hook.
func (m *Manager) EnsureClone(ctx context.Context, branchHash, repoURL, branchName string) error {
	dir := m.dir(branchHash)
	logger := log.WithComponent("workspace").With().Str("branch_hash", branchHash).Logger()

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		logger.Debug().Msg("workspace already cloned")
		return m.runInstall(ctx, dir)
	}

	logger.Info().Str("repo_url", repoURL).Str("branch", branchName).Msg("cloning workspace")
	if err := os.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
		return &WorkspaceError{Step: "mkdir", Err: err}
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           repoURL,
		Auth:          m.Auth,
		ReferenceName: plumbing.NewBranchReferenceName(branchName),
		SingleBranch:  true,
	})
	if err != nil {
		return &WorkspaceError{Step: "clone", Err: err}
	}

	return m.runInstall(ctx, dir)
}

// Sync brings an existing workspace up to date with its remote branch:
// hard-reset, fetch, checkout, pull, install, strictly in that order.
// Any local modifications are discarded by design.
func (m *Manager) Sync(ctx context.Context, branchHash, branchName string) error {
	dir := m.dir(branchHash)

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return &WorkspaceError{Step: "open", Err: err}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return &WorkspaceError{Step: "worktree", Err: err}
	}

	head, err := repo.Head()
	if err != nil {
		return &WorkspaceError{Step: "reset", Err: err}
	}
	if err := worktree.Reset(&git.ResetOptions{Commit: head.Hash(), Mode: git.HardReset}); err != nil {
		return &WorkspaceError{Step: "reset", Err: err}
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       m.Auth,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branchName, branchName)),
		},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &WorkspaceError{Step: "fetch", Err: err}
	}

	branchRef := plumbing.NewBranchReferenceName(branchName)
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return &WorkspaceError{Step: "checkout", Err: err}
		}
		remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branchName), true)
		if err != nil {
			return &WorkspaceError{Step: "checkout", Err: err}
		}
		if err := worktree.Checkout(&git.CheckoutOptions{
			Hash:   remoteRef.Hash(),
			Branch: branchRef,
			Create: true,
			Force:  true,
		}); err != nil {
			return &WorkspaceError{Step: "checkout", Err: err}
		}
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: branchRef,
		Auth:          m.Auth,
		Force:         true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &WorkspaceError{Step: "pull", Err: err}
	}

	return m.runInstall(ctx, dir)
}

func (m *Manager) runInstall(ctx context.Context, dir string) error {
	if err := m.Install(ctx, dir); err != nil {
		return &WorkspaceError{Step: "install", Err: err}
	}
	return nil
}

// HasEntrypoint reports whether the agreed entrypoint file (agent.<ext>)
// exists for the given branch.
func (m *Manager) HasEntrypoint(branchHash string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir(branchHash), "agent.*"))
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// EntrypointPath returns the resolved entrypoint path for the branch,
// or an empty string if none exists.
func (m *Manager) EntrypointPath(branchHash string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir(branchHash), "agent.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

// Dir returns the workspace directory for a branch_hash.
func (m *Manager) Dir(branchHash string) string {
	return m.dir(branchHash)
}
