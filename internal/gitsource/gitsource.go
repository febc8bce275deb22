// Package gitsource keeps local working copies of git-hosted decks.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, logger *slog.Logger, repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		logger.Info("cloning repository", "url", repoURL, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: repoURL})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		logger.Info("pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// LocalPath maps a repository URL onto a directory below baseDir. Both
// http(s) URLs and scp-like "git@host:owner/repo.git" forms are accepted.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if user, rest, ok := strings.Cut(repoURL, "@"); ok && user != "" {
			host, repoPath, ok := strings.Cut(rest, ":")
			if ok && host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	if sanitizedPath == "" || sanitizedPath == "/" {
		return "", fmt.Errorf("git URL has no repository path: %s", repoURL)
	}
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}

// IsRemote reports whether path names a git remote rather than a local directory.
func IsRemote(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "git@")
}
