// Package batch streams flat files through a record mapper: it reads and
// writes lines in a configured charset, hands each line to a MapFunc and
// decides what happens to the lines that fail.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/config"
	"github.com/ssargent/flatrec/pkg/storage"
)

// Policy decides what a Job does with a line that fails to map.
type Policy string

// Policies.
const (
	PolicyReject Policy = config.OnErrorReject
	PolicyAbort  Policy = config.OnErrorAbort
	PolicySkip   Policy = config.OnErrorSkip
)

// ParsePolicy returns the policy called name.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyReject, PolicyAbort, PolicySkip:
		return p, nil
	}
	return "", fmt.Errorf("unknown error policy %q", name)
}

// MapFunc turns line n into a record, or a record into a line.
type MapFunc func(text string, n int) (any, error)

// Sink receives every mapped value in line order.
type Sink func(ctx context.Context, value any, n int) error

// RejectSink keeps the lines a job could not map.
type RejectSink interface {
	Put(r storage.Reject) (ksuid.KSUID, error)
}

// Report counts the lines of a run.
type Report struct {
	Read     int           `json:"read"`
	Mapped   int           `json:"mapped"`
	Rejected int           `json:"rejected"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Job drives Map over the lines of a Reader.
type Job struct {
	Source  string
	Layout  string
	Map     MapFunc
	Sink    Sink
	Policy  Policy
	Rejects RejectSink
	Logger  *zap.Logger
	Metrics *Metrics
}

// Run maps every line of r in order until the input ends, ctx is done, the
// sink fails or, under PolicyAbort, a line fails. The report is valid even
// when an error is returned.
func (j *Job) Run(ctx context.Context, r *Reader) (Report, error) {
	var report Report
	start := time.Now()
	logger := j.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("source", j.Source), zap.String("layout", j.Layout))

	err := j.run(ctx, r, logger, &report)
	report.Duration = time.Since(start)
	j.Metrics.RecordJob(j.Layout, err == nil, report.Duration)

	if err != nil {
		logger.Error("batch failed", zap.Error(err), zap.Int("read", report.Read))
		return report, err
	}
	logger.Info("batch completed",
		zap.Int("read", report.Read),
		zap.Int("mapped", report.Mapped),
		zap.Int("rejected", report.Rejected),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (j *Job) run(ctx context.Context, r *Reader, logger *zap.Logger, report *Report) error {
	if j.Map == nil {
		return fmt.Errorf("batch job has no map function")
	}
	policy := j.Policy
	if policy == "" {
		policy = PolicyAbort
	}
	if policy == PolicyReject && j.Rejects == nil {
		return fmt.Errorf("reject policy needs a reject sink")
	}

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, text := r.Line()
		report.Read++

		value, err := j.Map(text, n)
		if err != nil {
			if err := j.fail(policy, n, text, err, logger, report); err != nil {
				return err
			}
			continue
		}

		if j.Sink != nil {
			if err := j.Sink(ctx, value, n); err != nil {
				j.Metrics.RecordLine(j.Layout, OutcomeFailed)
				return fmt.Errorf("sink failed at line %d: %w", n, err)
			}
		}
		report.Mapped++
		j.Metrics.RecordLine(j.Layout, OutcomeMapped)
	}
	return r.Err()
}

func (j *Job) fail(policy Policy, n int, text string, cause error, logger *zap.Logger, report *Report) error {
	switch policy {
	case PolicySkip:
		report.Skipped++
		j.Metrics.RecordLine(j.Layout, OutcomeSkipped)
		logger.Debug("line skipped", zap.Int("line", n), zap.Error(cause))
		return nil
	case PolicyReject:
		id, err := j.Rejects.Put(storage.Reject{
			Source:     j.Source,
			Layout:     j.Layout,
			LineNumber: n,
			Text:       text,
			Reason:     cause.Error(),
		})
		if err != nil {
			return fmt.Errorf("failed to reject line %d: %w", n, err)
		}
		report.Rejected++
		j.Metrics.RecordLine(j.Layout, OutcomeRejected)
		logger.Warn("line rejected", zap.Int("line", n), zap.Stringer("reject", id), zap.Error(cause))
		return nil
	default:
		j.Metrics.RecordLine(j.Layout, OutcomeFailed)
		return fmt.Errorf("batch aborted: %w", cause)
	}
}
