// Package workspace prepares the filesystem a backend operates on, either
// by pointing directly at the caller's working tree or by staging a fresh,
// git-initialized copy.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentbackplane/abp/contract"
	"github.com/agentbackplane/abp/globmatch"
)

// Error wraps a failure encountered while preparing or inspecting a
// workspace, naming the stage (source, staging, git) that failed.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("workspace: %s: %v", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// PreparedWorkspace is the filesystem root a backend should operate on, plus
// whatever cleanup is needed once the run is done.
type PreparedWorkspace struct {
	path    string
	staged  bool
	cleanup func() error
}

// Path returns the filesystem path the backend should treat as its root.
func (w *PreparedWorkspace) Path() string { return w.path }

// Staged reports whether this workspace is a throwaway staged copy rather
// than the caller's original working tree.
func (w *PreparedWorkspace) Staged() bool { return w.staged }

// Close releases any resources the workspace holds. For a PassThrough
// workspace this is a no-op; for a Staged workspace it removes the
// temporary directory.
func (w *PreparedWorkspace) Close() error {
	if w.cleanup == nil {
		return nil
	}
	return w.cleanup()
}

// Prepare builds a PreparedWorkspace from spec. Callers must call Close when
// done with the workspace.
func Prepare(ctx context.Context, spec contract.WorkspaceSpec) (*PreparedWorkspace, error) {
	if _, err := os.Stat(spec.Root); err != nil {
		return nil, &Error{Stage: "source", Err: fmt.Errorf("root %q: %w", spec.Root, err)}
	}

	switch spec.Mode {
	case contract.WorkspacePassThrough, "":
		return &PreparedWorkspace{path: spec.Root}, nil
	case contract.WorkspaceStaged:
		return prepareStaged(ctx, spec)
	default:
		return nil, &Error{Stage: "source", Err: fmt.Errorf("unknown mode %q", spec.Mode)}
	}
}

func prepareStaged(ctx context.Context, spec contract.WorkspaceSpec) (*PreparedWorkspace, error) {
	dir, err := os.MkdirTemp("", "abp-workspace-*")
	if err != nil {
		return nil, &Error{Stage: "staging", Err: fmt.Errorf("create staging dir: %w", err)}
	}

	filter, err := globmatch.New(spec.Include, spec.Exclude)
	if err != nil {
		os.RemoveAll(dir)
		return nil, &Error{Stage: "staging", Err: fmt.Errorf("compile staging globs: %w", err)}
	}

	if err := copyTree(spec.Root, dir, filter); err != nil {
		os.RemoveAll(dir)
		return nil, &Error{Stage: "staging", Err: fmt.Errorf("copy tree: %w", err)}
	}

	if err := gitInitAndCommit(ctx, dir); err != nil {
		// Missing git narrows observable state (no git_status/git_diff
		// later) but must not fail staging.
		_ = err
	}

	return &PreparedWorkspace{
		path:   dir,
		staged: true,
		cleanup: func() error {
			return os.RemoveAll(dir)
		},
	}, nil
}

func copyTree(src, dst string, filter *globmatch.IncludeExcludeGlobs) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if rel == ".git" || strings.HasPrefix(rel, ".git"+string(filepath.Separator)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		destPath := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(destPath, 0o755)
		}

		if filter.Decide(filepath.ToSlash(rel)) != globmatch.Allowed {
			return nil
		}
		return copyFile(path, destPath)
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func gitInitAndCommit(ctx context.Context, dir string) error {
	steps := [][]string{
		{"init"},
		{"add", "-A"},
		{"-c", "user.email=abp@localhost", "-c", "user.name=abp", "commit", "-m", "baseline", "--allow-empty"},
	}
	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if err := cmd.Run(); err != nil {
			return &Error{Stage: "git", Err: fmt.Errorf("%s: %w", strings.Join(args, " "), err)}
		}
	}
	return nil
}

// GitStatus returns `git status --porcelain` output for path, or ("", false)
// if git is unavailable or the command fails — missing git narrows
// observable state without aborting the run.
func GitStatus(ctx context.Context, path string) (string, bool) {
	return runGitQuiet(ctx, path, "status", "--porcelain")
}

// GitDiff returns `git diff` output for path, or ("", false) if git is
// unavailable or the command fails.
func GitDiff(ctx context.Context, path string) (string, bool) {
	return runGitQuiet(ctx, path, "diff")
}

func runGitQuiet(ctx context.Context, dir string, args ...string) (string, bool) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}
