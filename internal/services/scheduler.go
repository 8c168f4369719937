package services

import (
	"context"
	"time"

	"hoa-backend/internal/metrics"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const schedulerJobTimeout = 5 * time.Minute

// BillingJobs is the work the scheduler runs. *DueService implements it.
type BillingJobs interface {
	GenerateMonthlyDues(ctx context.Context, period string) (int, error)
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the recurring billing jobs in the association's time zone.
type Scheduler struct {
	cron *cron.Cron
	jobs BillingJobs
	now  clock
}

func NewScheduler(jobs BillingJobs) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(timeutil.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		jobs: jobs,
		now:  defaultClock(nil),
	}
}

// Register adds the dues generation and overdue jobs with the given cron specs.
func (s *Scheduler) Register(generateSpec, overdueSpec string) error {
	if _, err := s.cron.AddFunc(generateSpec, func() { s.RunGenerateDues(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(overdueSpec, func() { s.RunMarkOverdue(context.Background()) }); err != nil {
		return err
	}
	utils.Logger.WithFields(logrus.Fields{
		"generate_dues": generateSpec,
		"mark_overdue":  overdueSpec,
	}).Info("billing jobs scheduled")
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunGenerateDues creates the current period's dues.
func (s *Scheduler) RunGenerateDues(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, schedulerJobTimeout)
	defer cancel()

	period := timeutil.BillingPeriod(s.now())
	created, err := s.jobs.GenerateMonthlyDues(ctx, period)
	s.finish("generate_dues", err, logrus.Fields{"period": period, "created": created})
}

// RunMarkOverdue applies penalties to dues past their due date.
func (s *Scheduler) RunMarkOverdue(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, schedulerJobTimeout)
	defer cancel()

	marked, err := s.jobs.MarkOverdue(ctx, s.now())
	s.finish("mark_overdue", err, logrus.Fields{"marked": marked})
}

func (s *Scheduler) finish(job string, err error, fields logrus.Fields) {
	fields["job"] = job
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues(job, "error").Inc()
		utils.Logger.WithFields(fields).WithError(err).Error("scheduled job failed")
		return
	}
	metrics.SchedulerRuns.WithLabelValues(job, "ok").Inc()
	utils.Logger.WithFields(fields).Info("scheduled job finished")
}
