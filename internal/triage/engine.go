package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/altin/gha-triage/internal/model"
)

// AuthorChecker reports whether two records share a commit author. It may
// cost a network round trip per record and may fill in AuthorEmail.
type AuthorChecker interface {
	SameAuthor(ctx context.Context, a, b *model.JobRecord) (bool, error)
}

type Outcome int

const (
	OutcomeExcluded Outcome = iota
	OutcomeNoAnchor
	OutcomeWindowTooWide
	OutcomeNoResults
	OutcomeRevertContaminated
	OutcomeExhausted
	OutcomeAccepted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExcluded:
		return "excluded"
	case OutcomeNoAnchor:
		return "no anchor"
	case OutcomeWindowTooWide:
		return "window too wide"
	case OutcomeNoResults:
		return "no results"
	case OutcomeRevertContaminated:
		return "revert contaminated"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Verdict is the result of one correlation. Match is set only when Outcome
// is OutcomeAccepted.
type Verdict struct {
	Outcome   Outcome
	Match     *model.JobRecord
	Window    Window
	Inspected int
}

func (v Verdict) Found() bool {
	return v.Outcome == OutcomeAccepted && v.Match != nil
}

// Request is one correlation. A zero Lookback uses the policy default.
type Request struct {
	Job            *model.JobRecord
	BaseCommitTime model.Timestamp
	Lookback       time.Duration
}

// Collaborators are the external services the engine consults.
type Collaborators struct {
	Search  Searcher
	Commits MergeCommitResolver
	Authors AuthorChecker
	Matcher SignatureMatcher
}

// Engine finds the first legitimate prior occurrence of a job failure. It
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	policy  Policy
	search  Searcher
	commits MergeCommitResolver
	authors AuthorChecker
	matcher SignatureMatcher
	log     *slog.Logger
}

func NewEngine(policy Policy, c Collaborators, logger *slog.Logger) (*Engine, error) {
	if c.Search == nil {
		return nil, errors.New("triage: search adapter is required")
	}
	if c.Commits == nil {
		return nil, errors.New("triage: merge commit resolver is required")
	}
	if c.Authors == nil {
		return nil, errors.New("triage: author checker is required")
	}
	if c.Matcher == nil {
		c.Matcher = CaptureMatcher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		policy:  policy.normalized(),
		search:  c.Search,
		commits: c.Commits,
		authors: c.Authors,
		matcher: c.Matcher,
		log:     logger,
	}, nil
}

func (e *Engine) Policy() Policy {
	p := e.policy
	p.Exclusions = append([]string(nil), e.policy.Exclusions...)
	return p
}

// decision is what a candidate check concludes about one candidate.
type decision int

const (
	pass decision = iota
	skip
	abort
)

type candidateCheck struct {
	name string
	fn   func(ctx context.Context, job, cand *model.JobRecord) (decision, error)
}

// FindSimilar runs the correlation. Collaborator errors are returned as is;
// every "nothing found" path is a Verdict with a nil error.
func (e *Engine) FindSimilar(ctx context.Context, req Request) (Verdict, error) {
	if req.Job == nil {
		return Verdict{}, errors.New("triage: request has no job")
	}
	job := req.Job
	log := e.log.With("request_id", uuid.NewString(), "job_id", job.ID, "job", job.Name)

	if e.policy.Excluded(*job) {
		log.Debug("job excluded from flakiness analysis")
		return Verdict{Outcome: OutcomeExcluded}, nil
	}
	if !job.HeadSHATimestamp.Valid {
		log.Debug("job has no head commit timestamp")
		return Verdict{Outcome: OutcomeNoAnchor}, nil
	}

	lookback := req.Lookback
	if lookback <= 0 {
		lookback = e.policy.Lookback
	}
	window, rejection := SelectWindow(job.HeadSHATimestamp, req.BaseCommitTime, lookback, e.policy.MaxWindow)
	switch rejection {
	case WindowNoAnchor:
		return Verdict{Outcome: OutcomeNoAnchor}, nil
	case WindowTooWide:
		log.Info("base commit too old, skipping similar failure search",
			"start", window.Start, "end", window.End, "max_window", e.policy.MaxWindow)
		return Verdict{Outcome: OutcomeWindowTooWide, Window: window}, nil
	}

	records, err := e.search.SearchSimilar(ctx, similarQuery(*job, window, e.policy.MaxResults))
	if err != nil {
		return Verdict{}, fmt.Errorf("search similar failures: %w", err)
	}
	if len(records) == 0 {
		log.Debug("no similar failures in window", "start", window.Start, "end", window.End)
		return Verdict{Outcome: OutcomeNoResults, Window: window}, nil
	}

	shas, err := e.commits.MergeCommits(ctx, *job)
	if err != nil {
		return Verdict{}, fmt.Errorf("resolve merge commits for PR %d: %w", job.PRNumber, err)
	}
	merges := NewMergeCommits(shas)

	checks := e.candidateChecks(merges)
	v := Verdict{Outcome: OutcomeExhausted, Window: window}
candidates:
	for i := range records {
		if err := ctx.Err(); err != nil {
			return Verdict{}, err
		}
		cand := &records[i]
		v.Inspected++
		for _, c := range checks {
			d, err := c.fn(ctx, job, cand)
			if err != nil {
				return Verdict{}, err
			}
			switch d {
			case abort:
				log.Info("candidate failed on a previous merge commit of this PR, aborting search",
					"candidate_id", cand.ID, "sha", cand.HeadSHA)
				return Verdict{Outcome: OutcomeRevertContaminated, Window: window, Inspected: v.Inspected}, nil
			case skip:
				log.Debug("candidate skipped", "candidate_id", cand.ID, "check", c.name)
				continue candidates
			}
		}
		log.Info("found similar failure", "candidate_id", cand.ID, "sha", cand.HeadSHA, "branch", cand.HeadBranch)
		v.Outcome = OutcomeAccepted
		v.Match = cand
		return v, nil
	}
	log.Debug("no candidate accepted", "candidates", len(records))
	return v, nil
}

// candidateChecks is the ordered per-candidate pipeline. Order is cost
// order: the author lookup needs a network call and runs last.
func (e *Engine) candidateChecks(merges MergeCommits) []candidateCheck {
	return []candidateCheck{
		{"revert guard", func(_ context.Context, _, cand *model.JobRecord) (decision, error) {
			if merges.FromPreviousMerge(*cand) {
				return abort, nil
			}
			return pass, nil
		}},
		{"identity", func(_ context.Context, job, cand *model.JobRecord) (decision, error) {
			if cand.ID != job.ID && cand.HeadSHA != job.HeadSHA && cand.HeadBranch != job.HeadBranch {
				return pass, nil
			}
			return skip, nil
		}},
		{"signature", func(_ context.Context, job, cand *model.JobRecord) (decision, error) {
			if e.matcher.SameFailure(*job, *cand) {
				return pass, nil
			}
			return skip, nil
		}},
		{"same author", func(ctx context.Context, job, cand *model.JobRecord) (decision, error) {
			same, err := e.authors.SameAuthor(ctx, job, cand)
			if err != nil {
				return pass, fmt.Errorf("compare authors of jobs %d and %d: %w", job.ID, cand.ID, err)
			}
			if same {
				return skip, nil
			}
			return pass, nil
		}},
	}
}
