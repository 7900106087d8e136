package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	"github.com/Skotchmaster/baseball_stats/internal/jobs"
)

type ImportService struct {
	Pipeline *ingest.Pipeline
	Fetcher  *ingest.Fetcher
	Jobs     *jobs.Runner
	// FeedURL is the configured player feed. Callers cannot pick another target.
	FeedURL string
}

// ImportCSV runs a whole uploaded CSV synchronously.
func (s *ImportService) ImportCSV(ctx context.Context, filename string, content []byte) (ingest.Summary, error) {
	if !strings.EqualFold(path.Ext(filename), ".csv") {
		return ingest.Summary{}, ErrNotCSV
	}
	if !utf8.Valid(content) {
		return ingest.Summary{}, ErrNotUTF8
	}

	src, err := ingest.NewCSVSource(bytes.NewReader(content))
	if err != nil {
		return ingest.Summary{}, err
	}
	return s.Pipeline.Run(ctx, src)
}

// StartAPIImport queues a fetch of the configured feed. The job id is returned
// before any record is read.
func (s *ImportService) StartAPIImport(ctx context.Context) (*jobs.Job, error) {
	target := strings.TrimSpace(s.FeedURL)
	if target == "" {
		return nil, ErrFeedNotConfigured
	}

	fetcher := s.Fetcher
	if fetcher == nil {
		fetcher = ingest.NewFetcher(ingest.DefaultFetchTimeout)
	}
	return s.Jobs.Start(ctx, "api", func(ctx context.Context) (ingest.Summary, error) {
		records, err := fetcher.Fetch(ctx, target)
		if err != nil {
			return ingest.Summary{}, err
		}
		return s.Pipeline.Run(ctx, ingest.NewSliceSource("api", records))
	})
}

func (s *ImportService) Job(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := s.Jobs.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return nil, fmt.Errorf("import job %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}
