package jobs

import (
	"context"
	"errors"

	"github.com/wonny/signalengine/internal/scanner"
	"github.com/wonny/signalengine/pkg/logger"
)

// DefaultScanSchedule runs every 30 minutes on weekdays
const DefaultScanSchedule = "0 */30 * * * 1-5"

// Scanner runs one live scan
type Scanner interface {
	Run(ctx context.Context) (*scanner.Report, error)
}

// ScanJob runs the live signal scan
type ScanJob struct {
	scanner  Scanner
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a new scan job. An empty schedule uses the default.
func NewScanJob(s Scanner, schedule string, log *logger.Logger) *ScanJob {
	if schedule == "" {
		schedule = DefaultScanSchedule
	}
	return &ScanJob{
		scanner:  s,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "signal_scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan. An overlapping manual scan is not a failure.
func (j *ScanJob) Run(ctx context.Context) error {
	report, err := j.scanner.Run(ctx)
	if errors.Is(err, scanner.ErrScanInProgress) {
		j.logger.Info("Scan already running, skipping scheduled run")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"signals_found":   report.SignalsFound,
		"high_confidence": report.HighConfidence,
		"execution_mode":  report.ExecutionMode,
	}).Info("Scheduled scan completed")

	return nil
}
