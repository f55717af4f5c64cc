// Package git selects files by their git change state, so a rewrite can be limited
// to what a commit or a working tree touches.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/astrw/pkg/pathutil"
)

// Scope defines which changes are selected
type Scope string

const (
	// ScopeStaged selects staged changes (git diff --cached)
	ScopeStaged Scope = "staged"
	// ScopeWIP selects all uncommitted changes, untracked files included
	ScopeWIP Scope = "wip"
	// ScopeCommit selects a single commit against its parent
	ScopeCommit Scope = "commit"
	// ScopeRange selects a commit range (base..target)
	ScopeRange Scope = "range"
)

// ParseScope validates a scope name
func ParseScope(name string) (Scope, error) {
	switch s := Scope(strings.ToLower(name)); s {
	case ScopeStaged, ScopeWIP, ScopeCommit, ScopeRange:
		return s, nil
	}
	return "", fmt.Errorf("unknown scope %q (want staged, wip, commit or range)", name)
}

// FileChangeStatus is the kind of change git reports for a file
type FileChangeStatus string

const (
	FileStatusAdded    FileChangeStatus = "added"
	FileStatusModified FileChangeStatus = "modified"
	FileStatusDeleted  FileChangeStatus = "deleted"
	FileStatusRenamed  FileChangeStatus = "renamed"
	FileStatusCopied   FileChangeStatus = "copied"
)

// ChangedFile is a file affected by git changes. Paths are relative to the repository root.
type ChangedFile struct {
	Path    string           `json:"path"`
	OldPath string           `json:"old_path,omitempty"`
	Status  FileChangeStatus `json:"status"`
}

// Provider wraps git commands for one repository
type Provider struct {
	repoRoot string
}

// NewProvider creates a provider for the repository containing dir
func NewProvider(dir string) (*Provider, error) {
	absRoot, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid repo root: %w", err)
	}

	// Works from any subdirectory of the repository
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absRoot
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s", absRoot)
	}

	gitRoot := strings.TrimSpace(string(output))
	if resolved, err := filepath.EvalSymlinks(gitRoot); err == nil {
		gitRoot = resolved
	}
	return &Provider{repoRoot: gitRoot}, nil
}

// RepoRoot returns the repository root path
func (p *Provider) RepoRoot() string {
	return p.repoRoot
}

// ChangedFiles returns the files changed in scope. baseRef names the commit for
// ScopeCommit (default HEAD) and the range start for ScopeRange; targetRef is the
// range end (default HEAD).
func (p *Provider) ChangedFiles(ctx context.Context, scope Scope, baseRef, targetRef string) ([]ChangedFile, error) {
	switch scope {
	case ScopeStaged:
		return p.diff(ctx, "diff", "--cached", "--name-status", "--no-renames")
	case ScopeWIP:
		files, err := p.diff(ctx, "diff", "HEAD", "--name-status", "--no-renames")
		if err != nil {
			// A repository without commits has nothing but the index
			if files, err = p.diff(ctx, "diff", "--cached", "--name-status", "--no-renames"); err != nil {
				return nil, err
			}
		}
		untracked, err := p.untracked(ctx)
		if err != nil {
			return nil, err
		}
		return append(files, untracked...), nil
	case ScopeCommit:
		if baseRef == "" {
			baseRef = "HEAD"
		}
		return p.diff(ctx, "diff-tree", "--no-commit-id", "--name-status", "--no-renames", "-r", baseRef)
	case ScopeRange:
		if baseRef == "" {
			return nil, errors.New("base ref required for range scope")
		}
		if targetRef == "" {
			targetRef = "HEAD"
		}
		return p.diff(ctx, "diff", "--name-status", "--no-renames", baseRef+".."+targetRef)
	default:
		return nil, fmt.Errorf("unknown scope: %s", scope)
	}
}

func (p *Provider) diff(ctx context.Context, args ...string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return parseNameStatus(output)
}

func (p *Provider) untracked(ctx context.Context) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--others", "--exclude-standard")
	cmd.Dir = p.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %w", err)
	}

	var files []ChangedFile
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			files = append(files, ChangedFile{Path: line, Status: FileStatusAdded})
		}
	}
	return files, scanner.Err()
}

// ProjectFiles maps changed files to paths relative to projectRoot. Deleted files and
// files outside the project are dropped; the result is deduplicated.
func (p *Provider) ProjectFiles(files []ChangedFile, projectRoot string) []string {
	root := projectRoot
	if resolved, err := filepath.EvalSymlinks(projectRoot); err == nil {
		root = resolved
	}

	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		if f.Status == FileStatusDeleted {
			continue
		}
		abs := filepath.Join(p.repoRoot, filepath.FromSlash(f.Path))
		rel := pathutil.ToRelative(abs, root)
		if filepath.IsAbs(filepath.FromSlash(rel)) || seen[rel] {
			continue
		}
		seen[rel] = true
		out = append(out, rel)
	}
	return out
}

// parseNameStatus parses git --name-status output. Fields are tab separated, so
// paths may contain spaces.
func parseNameStatus(output []byte) ([]ChangedFile, error) {
	var files []ChangedFile

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		status := parts[0]
		file := ChangedFile{Path: parts[1], Status: parseStatus(status)}

		// Renames and copies carry the old path first
		if len(parts) >= 3 && (status[0] == 'R' || status[0] == 'C') {
			file.OldPath = parts[1]
			file.Path = parts[2]
		}
		files = append(files, file)
	}

	return files, scanner.Err()
}

// parseStatus converts a git status letter
func parseStatus(status string) FileChangeStatus {
	if len(status) == 0 {
		return FileStatusModified
	}

	switch status[0] {
	case 'A':
		return FileStatusAdded
	case 'D':
		return FileStatusDeleted
	case 'R':
		return FileStatusRenamed
	case 'C':
		return FileStatusCopied
	default:
		return FileStatusModified
	}
}
