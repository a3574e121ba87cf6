package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/altin/gha-triage/internal/api"
	"github.com/altin/gha-triage/internal/cache"
	"github.com/altin/gha-triage/internal/model"
	"github.com/altin/gha-triage/internal/ops"
	"github.com/altin/gha-triage/internal/search"
	"github.com/altin/gha-triage/internal/store"
	"github.com/altin/gha-triage/internal/triage"
)

// errRecordNotFound is returned by lookup for IDs absent from the corpus.
var errRecordNotFound = errors.New("job not in failure corpus")

// services bundles the collaborators commands share. Exactly one of store and
// corpus is set.
type services struct {
	client *api.Client
	store  *store.Store
	corpus *search.Engine
	logs   api.LogChecker
	engine *triage.Engine
}

// openServices connects to GitHub and the failure corpus. A non-empty
// corpusPath selects the in-memory JSON corpus instead of the SQL store.
func openServices(ctx context.Context, corpusPath string) (*services, error) {
	client, err := api.NewClient(cfg.Owner, cfg.Repo)
	if err != nil {
		return nil, fmt.Errorf("github auth (run gh auth login): %w", err)
	}

	logCache, err := cache.NewLogCache(cfg.Cache.Dir, cfg.Cache.SizeMB, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("open log cache: %w", err)
	}

	s := &services{
		client: client,
		logs:   api.LogChecker{Client: client, Cache: logCache},
	}

	var searcher triage.Searcher
	if corpusPath != "" {
		s.corpus, err = search.Load(corpusPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded failure corpus", "path", corpusPath, "records", s.corpus.Len())
		searcher = s.corpus
	} else {
		s.store, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		searcher = s.store
	}

	s.engine, err = triage.NewEngine(cfg.Policy(), triage.Collaborators{
		Search:  searcher,
		Commits: client,
		Authors: client,
	}, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	if err := logCache.Evict(); err != nil {
		logger.Warn("log cache eviction failed", "error", err)
	}
	return s, nil
}

func (s *services) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// lookup returns the corpus copy of a job, which carries the classifier's
// failure captures and lines.
func (s *services) lookup(ctx context.Context, id int64) (model.JobRecord, error) {
	if s.corpus != nil {
		rec, ok := s.corpus.Get(id)
		if !ok {
			return model.JobRecord{}, fmt.Errorf("job %d: %w", id, errRecordNotFound)
		}
		return rec, nil
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.JobRecord{}, fmt.Errorf("job %d: %w", id, errRecordNotFound)
	}
	return rec, err
}

// resolve is lookup with a fallback to the live GitHub job. The fallback
// record has no failure captures, so it can only triage as
// classifier-failed or infra-flaky.
func (s *services) resolve(ctx context.Context, id int64) (model.JobRecord, error) {
	rec, err := s.lookup(ctx, id)
	if !errors.Is(err, errRecordNotFound) {
		return rec, err
	}
	logger.Debug("job not in corpus, fetching from GitHub", "job_id", id)
	job, err := s.client.GetJob(ctx, id)
	if err != nil {
		return model.JobRecord{}, err
	}
	run, err := s.client.GetRun(ctx, job.RunID)
	if err != nil {
		return model.JobRecord{}, err
	}
	return job.Record(*run), nil
}

// runInput is everything batch triage needs about one workflow run.
type runInput struct {
	run     *model.Run
	records []model.JobRecord
	base    model.Timestamp
	labels  []string
}

// loadRun fetches a run's failed jobs, replaces each with its corpus copy
// when one exists, and resolves the PR's base commit time and labels.
func (s *services) loadRun(ctx context.Context, runID int64, pr int) (*runInput, error) {
	run, err := s.client.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", runID, err)
	}
	jobs, err := s.client.ListAllJobs(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs of run %d: %w", runID, err)
	}

	in := &runInput{run: run}
	var records []model.JobRecord
	for _, j := range jobs {
		rec := j.Record(*run)
		stored, err := s.lookup(ctx, j.ID)
		switch {
		case err == nil:
			rec = stored
		case errors.Is(err, errRecordNotFound):
			logger.Debug("job not in corpus, using GitHub record", "job_id", j.ID)
		default:
			return nil, err
		}
		records = append(records, rec)
	}
	in.records = ops.FilterFailed(records)
	// A run that failed before scheduling any job is triaged as a whole.
	if len(in.records) == 0 && run.Conclusion == model.ConclusionFailure {
		in.records = []model.JobRecord{run.Record()}
	}

	if pr == 0 {
		pr = run.PRNumber()
	}
	if pr != 0 {
		in.base, in.labels, err = s.pullContext(ctx, pr)
		if err != nil {
			return nil, err
		}
		for i := range in.records {
			if in.records[i].PRNumber == 0 {
				in.records[i].PRNumber = pr
			}
		}
	}
	return in, nil
}

// pullContext resolves the base commit time and labels of a PR. Only a PR
// without a base SHA falls back to a head-anchored window; a failed lookup
// is an error, since a stale base must still trip the window ceiling.
func (s *services) pullContext(ctx context.Context, pr int) (model.Timestamp, []string, error) {
	pull, err := s.client.GetPull(ctx, pr)
	if err != nil {
		return model.Timestamp{}, nil, err
	}
	if pull.Base.SHA == "" {
		logger.Debug("pull request has no base commit", "pr", pr)
		return model.Timestamp{}, pull.LabelNames(), nil
	}
	base, err := s.client.CommitTime(ctx, pull.Base.SHA)
	if err != nil {
		return model.Timestamp{}, nil, fmt.Errorf("resolve base commit time of PR %d: %w", pr, err)
	}
	return base, pull.LabelNames(), nil
}
