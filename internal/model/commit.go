package model

import "time"

type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type CommitDetail struct {
	Author    CommitAuthor `json:"author"`
	Committer CommitAuthor `json:"committer"`
	Message   string       `json:"message"`
}

// Commit is the payload of GET repos/{owner}/{repo}/commits/{sha}.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

type PullRequestRef struct {
	Number int    `json:"number"`
	Head   GitRef `json:"head"`
	Base   GitRef `json:"base"`
}

type GitRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type Label struct {
	Name string `json:"name"`
}

type PullRequest struct {
	Number         int     `json:"number"`
	State          string  `json:"state"`
	Title          string  `json:"title"`
	Head           GitRef  `json:"head"`
	Base           GitRef  `json:"base"`
	Labels         []Label `json:"labels"`
	MergeCommitSHA string  `json:"merge_commit_sha"`
	Merged         bool    `json:"merged"`
}

func (p PullRequest) LabelNames() []string {
	names := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		names = append(names, l.Name)
	}
	return names
}

// IssueEvent is one entry of GET repos/{owner}/{repo}/issues/{n}/events.
type IssueEvent struct {
	ID        int64     `json:"id"`
	Event     string    `json:"event"`
	CommitID  string    `json:"commit_id"`
	CreatedAt time.Time `json:"created_at"`
}
