package jobs

import (
	"context"
	"time"

	"questlog/internal/services"
)

// SummaryRollupJob generates the most recent elapsed weekly or monthly
// summary window for every user who journaled in it.
type SummaryRollupJob struct {
	summaries *services.SummaryService
	period    string
}

// NewSummaryRollupJob creates a rollup job for one period
func NewSummaryRollupJob(summaries *services.SummaryService, period string) *SummaryRollupJob {
	return &SummaryRollupJob{summaries: summaries, period: period}
}

// Name identifies the job in scheduler logs
func (j *SummaryRollupJob) Name() string {
	return j.period + "-summary-rollup"
}

// Run generates the due window
func (j *SummaryRollupJob) Run(ctx context.Context) error {
	return j.summaries.GenerateDue(ctx, j.period, time.Now())
}
