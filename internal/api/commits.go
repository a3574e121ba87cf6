package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/altin/gha-triage/internal/model"
)

func (c *Client) GetCommit(ctx context.Context, sha string) (*model.Commit, error) {
	var commit model.Commit
	if err := c.get(ctx, "commits/"+sha, &commit); err != nil {
		return nil, fmt.Errorf("get commit %s: %w", sha, err)
	}
	return &commit, nil
}

// CommitTime is the committer date of sha.
func (c *Client) CommitTime(ctx context.Context, sha string) (model.Timestamp, error) {
	commit, err := c.GetCommit(ctx, sha)
	if err != nil {
		return model.Timestamp{}, err
	}
	return model.TimestampOf(commit.Commit.Committer.Date), nil
}

// SameAuthor compares the commit author emails of two records, resolving
// and caching AuthorEmail on each record that lacks one. Records whose
// author cannot be determined are never considered the same author.
func (c *Client) SameAuthor(ctx context.Context, a, b *model.JobRecord) (bool, error) {
	for _, rec := range []*model.JobRecord{a, b} {
		if err := c.resolveAuthor(ctx, rec); err != nil {
			return false, err
		}
	}
	if a.AuthorEmail == "" || b.AuthorEmail == "" {
		return false, nil
	}
	return strings.EqualFold(a.AuthorEmail, b.AuthorEmail), nil
}

func (c *Client) resolveAuthor(ctx context.Context, rec *model.JobRecord) error {
	if rec.AuthorEmail != "" || rec.HeadSHA == "" {
		return nil
	}
	commit, err := c.GetCommit(ctx, rec.HeadSHA)
	if err != nil {
		return err
	}
	rec.AuthorEmail = commit.Commit.Author.Email
	return nil
}
