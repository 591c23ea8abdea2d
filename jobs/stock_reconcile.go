package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/finentry/finentry/internal/inventory"
	jobmetrics "github.com/finentry/finentry/internal/jobs"
)

// Reconciler lists items whose counters drifted from their transactions.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]inventory.Drift, error)
}

// StockReconcileJob logs stock drift. Counters are never rewritten.
type StockReconcileJob struct {
	Reconciler Reconciler
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewStockReconcileJob initialises the reconciliation handler.
func NewStockReconcileJob(r Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockReconcileJob {
	return &StockReconcileJob{Reconciler: r, Logger: logger, Metrics: metrics}
}

// Handle executes one reconciliation pass.
func (j *StockReconcileJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Reconciler == nil {
		return errors.New("stock reconcile: handler not configured")
	}
	tracker := j.Metrics.Track(TaskStockReconcile)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	logger := j.logger()
	drifts, err := j.Reconciler.Reconcile(ctx)
	if err != nil {
		logger.Error("stock reconcile failed", slog.Any("error", err))
		return err
	}

	perCompany := make(map[uuid.UUID]int)
	for _, d := range drifts {
		diff := d.Difference()
		logger.Warn("stock drift detected",
			slog.String("company_id", d.CompanyID.String()),
			slog.String("item_id", d.ItemID.String()),
			slog.String("item", d.Name),
			slog.Int("full_diff", diff.Full),
			slog.Int("empty_diff", diff.Empty),
		)
		perCompany[d.CompanyID]++
	}
	for companyID, n := range perCompany {
		j.Metrics.AddDrift(companyID, n)
	}
	logger.Info("stock reconcile completed",
		slog.Int("drifted_items", len(drifts)),
		slog.Int("companies", len(perCompany)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *StockReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
