package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/metrics"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
)

// MaxErrorDetails caps the per-row errors kept in a Summary.
const MaxErrorDetails = 10

// Sink stores one accepted player. Each call is its own write.
type Sink interface {
	SavePlayer(ctx context.Context, p *models.Player) error
}

type ErrorDetail struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type Summary struct {
	Created      int           `json:"created"`
	Errors       int           `json:"errors"`
	ErrorDetails []ErrorDetail `json:"error_details"`
}

func (s *Summary) fail(row int, err error) {
	s.Errors++
	if len(s.ErrorDetails) < MaxErrorDetails {
		s.ErrorDetails = append(s.ErrorDetails, ErrorDetail{Row: row, Error: err.Error()})
	}
}

type Pipeline struct {
	Normalizer *Normalizer
	Sink       Sink
	Events     events.Publisher
}

// Run normalizes and stores every record of src in order. A bad record is
// counted and skipped; only a failing source or a cancelled ctx stops the batch.
func (p *Pipeline) Run(ctx context.Context, src RecordSource) (Summary, error) {
	start := time.Now()
	name := src.Name()
	l := logging.FromContext(ctx).With("component", "ingest", "source", name)
	sum := Summary{ErrorDetails: []ErrorDetail{}}

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrMalformedRow) {
				metrics.IngestRecord(name, "rejected")
				l.Warn("ingest_row_malformed", "row", rec.Row, "error", err)
				sum.fail(rec.Row, err)
				continue
			}
			runErr = fmt.Errorf("read %s source: %w", name, err)
			break
		}

		if err := p.process(ctx, l, name, rec); err != nil {
			sum.fail(rec.Row, err)
			continue
		}
		sum.Created++
	}

	status := "completed"
	if runErr != nil {
		status = "aborted"
	}
	metrics.IngestBatch(name, status, time.Since(start))
	l.Info("ingest_batch_finished", "status", status, "created", sum.Created, "errors", sum.Errors, "duration", time.Since(start))

	if p.Events != nil {
		ev := events.ImportEvent{
			Type:    events.ImportFinished,
			Source:  name,
			Created: sum.Created,
			Errors:  sum.Errors,
			Failed:  runErr != nil,
			At:      time.Now().UTC(),
		}
		if err := p.Events.PublishEvent(context.WithoutCancel(ctx), events.TopicImports, name, ev); err != nil {
			l.Warn("publish_event_failed", "topic", events.TopicImports, "error", err)
		}
	}
	return sum, runErr
}

func (p *Pipeline) process(ctx context.Context, l *slog.Logger, source string, rec Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record %d: %v", rec.Row, r)
			l.Error("ingest_record_panic", "row", rec.Row, "panic", r)
		}
	}()

	out := p.Normalizer.Normalize(rec.Row, rec.Fields)
	for _, f := range out.Fields {
		metrics.IngestFieldRejected(f.Field)
		l.Warn("ingest_field_rejected", "row", rec.Row, "field", f.Field, "value", f.Value, "reason", f.Reason)
	}
	if len(out.Flags) > 0 {
		l.Warn("ingest_name_flagged", "row", rec.Row, "flags", out.Flags, "player_name", nameOf(out.Player))
	}
	if !out.Accepted() {
		metrics.IngestRecord(source, "rejected")
		l.Warn("ingest_record_rejected", "row", rec.Row, "error", out.Rejection)
		return out.Rejection
	}

	if err := p.Sink.SavePlayer(ctx, out.Player); err != nil {
		metrics.IngestRecord(source, "failed")
		l.Error("ingest_record_write_failed", "row", rec.Row, "error", err)
		return err
	}
	metrics.IngestRecord(source, "created")
	return nil
}

func nameOf(p *models.Player) string {
	if p == nil {
		return ""
	}
	return p.PlayerName
}
