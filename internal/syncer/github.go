package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/domain/meeting"
	"github.com/rileycx/granola-export/internal/domain/meeting/index"
)

var (
	// ErrNotGitRepo means the export dir has not been initialized as a git repository.
	ErrNotGitRepo = errors.New("git not initialized in export dir (run: git init && git remote add origin <repo-url>)")

	// ErrRemoteMismatch means the origin remote does not point at the configured repo.
	ErrRemoteMismatch = errors.New("git remote 'origin' does not match configured repo")
)

// GitHub commits the exported files in the export dir and pushes them to
// the origin remote, which must match Repo.
type GitHub struct {
	Repo   string
	Branch string
	Token  string // optional; used as HTTPS basic auth password
	Now    func() time.Time
}

// Check opens the export dir repository and verifies its origin remote.
// It returns the repository and the remote URL.
func (g *GitHub) Check(dir string) (*git.Repository, string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, "", ErrNotGitRepo
		}
		return nil, "", fmt.Errorf("opening repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRemoteMismatch, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || !RemoteMatchesRepo(g.Repo, urls[0]) {
		return nil, "", fmt.Errorf("%w (%s)", ErrRemoteMismatch, g.Repo)
	}
	return repo, urls[0], nil
}

// HasChanges reports whether exported files in dir have uncommitted changes.
func (g *GitHub) HasChanges(dir string) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	for path, st := range status {
		if isExported(path) && (st.Worktree != git.Unmodified || st.Staging != git.Unmodified) {
			return true, nil
		}
	}
	return false, nil
}

// Sync stages the index and meeting files, commits them if anything
// changed, and pushes the current branch to Branch on origin.
func (g *GitHub) Sync(ctx context.Context, req meeting.SyncRequest) meeting.SyncResult {
	if g.Repo == "" {
		return g.result(meeting.SyncFailed, "github_repo not configured")
	}

	repo, url, err := g.Check(req.ExportDir)
	if err != nil {
		return g.result(meeting.SyncFailed, err.Error())
	}

	wt, err := repo.Worktree()
	if err != nil {
		return g.result(meeting.SyncFailed, fmt.Sprintf("opening worktree: %v", err))
	}
	if _, err := os.Stat(filepath.Join(req.ExportDir, index.FileName)); err == nil {
		if _, err := wt.Add(index.FileName); err != nil {
			return g.result(meeting.SyncFailed, fmt.Sprintf("staging index: %v", err))
		}
	}
	if err := wt.AddGlob(meeting.MeetingsDir + "/*.json"); err != nil && !errors.Is(err, git.ErrGlobNoMatches) {
		return g.result(meeting.SyncFailed, fmt.Sprintf("staging meetings: %v", err))
	}

	status, err := wt.Status()
	if err != nil {
		return g.result(meeting.SyncFailed, fmt.Sprintf("reading status: %v", err))
	}
	staged := false
	for path, st := range status {
		if isExported(path) && st.Staging != git.Unmodified && st.Staging != git.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return g.result(meeting.SyncSkipped, "no changes to push")
	}

	now := g.now()
	if _, err := wt.Commit("Auto-sync: "+now.Format("2006-01-02 15:04:05"), &git.CommitOptions{
		Author: signature(repo, now),
	}); err != nil {
		return g.result(meeting.SyncFailed, fmt.Sprintf("committing: %v", err))
	}

	head, err := repo.Head()
	if err != nil {
		return g.result(meeting.SyncFailed, fmt.Sprintf("resolving HEAD: %v", err))
	}
	branch := g.Branch
	if branch == "" {
		branch = "main"
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:refs/heads/%s", head.Name(), branch))

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       g.auth(url),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return g.result(meeting.SyncFailed, fmt.Sprintf("pushing to %s: %v", branch, err))
	}
	return g.result(meeting.SyncPushed, fmt.Sprintf("pushed to GitHub (%s)", g.Repo))
}

func (g *GitHub) result(status meeting.SyncStatus, msg string) meeting.SyncResult {
	return meeting.SyncResult{Method: config.SyncMethodGitHub, Status: status, Message: msg}
}

func (g *GitHub) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func (g *GitHub) auth(url string) transport.AuthMethod {
	if g.Token == "" || !strings.HasPrefix(url, "http") {
		// SSH remotes fall back to the ssh agent.
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: g.Token}
}

// signature prefers the git user configured for the repo or globally.
func signature(repo *git.Repository, when time.Time) *object.Signature {
	sig := &object.Signature{Name: "granola-export", Email: "granola-export@localhost", When: when}
	cfg, err := repo.ConfigScoped(gitconfig.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

func isExported(path string) bool {
	return path == index.FileName || strings.HasPrefix(path, meeting.MeetingsDir+"/")
}

// RemoteMatchesRepo is a best-effort match of a configured repo ("owner/name",
// optionally with .git) against a remote URL.
func RemoteMatchesRepo(repo, url string) bool {
	repo = strings.TrimSuffix(strings.TrimSpace(repo), ".git")
	if repo == "" || url == "" {
		return false
	}
	return strings.Contains(url, repo)
}
