package ingestion

import (
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit is one version-control commit with its changed paths.
type Commit struct {
	SHA          string
	Timestamp    time.Time
	ChangedPaths []string
}

// ChangeLog abstracts the version-control history provider.
type ChangeLog interface {
	// Log returns commits newer than since, most recent first. A repository
	// without version-control metadata returns (nil, nil).
	Log(path string, since time.Time) ([]Commit, error)
}

// GitChangeLog reads history through go-git.
type GitChangeLog struct{}

// Log implements ChangeLog. Commits whose stats cannot be computed (e.g.
// some merge commits) are skipped.
func (GitChangeLog) Log(path string, since time.Time) ([]Commit, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		// No version-control metadata: the coupling phase is a no-op.
		return nil, nil
	}

	iter, err := repo.Log(&git.LogOptions{Since: &since})
	if err != nil {
		return nil, nil
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		stats, statErr := c.Stats()
		if statErr != nil {
			return nil
		}
		commit := Commit{
			SHA:       c.Hash.String(),
			Timestamp: c.Committer.When,
		}
		for _, stat := range stats {
			commit.ChangedPaths = append(commit.ChangedPaths, stat.Name)
		}
		if len(commit.ChangedPaths) > 0 {
			commits = append(commits, commit)
		}
		return nil
	})
	if err != nil {
		return commits, nil
	}
	return commits, nil
}

// HeadCommit returns the repository's HEAD hash, or "" when unavailable.
func HeadCommit(path string) string {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
