package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"debtorbatch/internal/core"
	"debtorbatch/internal/debtor"
	"debtorbatch/internal/logger"
	"debtorbatch/internal/observability"
	"debtorbatch/internal/parser"
	"debtorbatch/internal/rules"
	"debtorbatch/internal/storage"
	"debtorbatch/internal/store"
)

// Config holds the pipeline tuning knobs.
type Config struct {
	BatchSize                int
	FailFastThresholdPercent float64
	FailFastSampleSize       int
	JobTTL                   time.Duration
}

// Worker drains the queue and executes import jobs one at a time. A single
// worker per process keeps ordering simple and bounds upstream pressure.
type Worker struct {
	queue   *Queue
	jobs    store.JobStore
	tracker *Tracker
	files   storage.FileStorage
	rules   rules.Provider
	client  core.BatchImporter
	reports *ReportWriter
	cfg     Config
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *observability.PipelineMetrics
}

// WithMetrics attaches pipeline instruments. Without it the worker runs
// uninstrumented.
func (w *Worker) WithMetrics(m *observability.PipelineMetrics) *Worker {
	w.metrics = m
	return w
}

// NewWorker wires the pipeline together.
func NewWorker(
	queue *Queue,
	jobs store.JobStore,
	files storage.FileStorage,
	ruleProvider rules.Provider,
	client core.BatchImporter,
	reports *ReportWriter,
	cfg Config,
	log *slog.Logger,
) *Worker {
	return &Worker{
		queue:   queue,
		jobs:    jobs,
		tracker: NewTracker(jobs, cfg.JobTTL),
		files:   files,
		rules:   ruleProvider,
		client:  client,
		reports: reports,
		cfg:     cfg,
		log:     log,
		tracer:  otel.Tracer("debtorbatch/importer"),
	}
}

// Run processes tasks until ctx ends. A panic in one job never takes the
// loop down.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("import worker started")
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.log.Info("import worker stopping", "reason", err)
			return
		}
		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	ctx = logger.WithCorrelationID(ctx, task.CorrelationID)
	log := logger.FromContext(ctx, w.log).With("job_id", task.JobID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("import job panicked", "panic", r)
			w.markFailed(task, store.ReasonUnhandled)
		}
	}()

	if err := w.execute(ctx, task, log); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Info("import job interrupted by shutdown")
			return
		}
		log.Error("import job failed", "error", err)
		reason := store.ReasonUnhandled
		if errors.Is(err, errCoreComm) {
			reason = store.ReasonCoreComm
		}
		w.markFailed(task, reason)
	}
}

// markFailed runs on a fresh context so a shutdown or panic still leaves the
// job in a terminal state.
func (w *Worker) markFailed(task Task, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := w.jobs.Get(ctx, task.JobID)
	if err != nil || job.Status.Terminal() {
		return
	}
	if err := w.tracker.Fail(ctx, job, reason); err != nil {
		w.log.Error("unable to mark job failed", "job_id", task.JobID, "error", err)
	}
	if w.metrics != nil {
		w.metrics.JobsFailed.Add(ctx, 1)
	}
}

func (w *Worker) execute(ctx context.Context, task Task, log *slog.Logger) error {
	ctx, span := w.tracer.Start(ctx, "import_job", trace.WithAttributes(
		attribute.String("job.id", task.JobID.String()),
	))
	defer span.End()

	job, err := w.jobs.Get(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			log.Warn("queued job no longer exists, skipping")
			return nil
		}
		return fmt.Errorf("load job: %w", err)
	}
	if job.Status.Terminal() {
		log.Warn("job already terminal, skipping", "status", job.Status)
		return nil
	}
	span.SetAttributes(attribute.String("tenant.id", job.TenantID.String()))

	if err := w.tracker.SetStatus(ctx, job, store.JobStatusValidating); err != nil {
		return err
	}

	rule, err := w.rules.Rules(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("fetch validation rules: %w", err)
	}
	validator, err := NewValidator(rule)
	if err != nil {
		return fmt.Errorf("build validator: %w", err)
	}

	file, err := w.files.OpenRead(ctx, job.FileRef)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	src, err := parser.Open(file, filepath.Ext(job.OriginalFileName))
	if err != nil {
		return fmt.Errorf("open row source: %w", err)
	}
	defer src.Close()

	if err := w.tracker.SetStatus(ctx, job, store.JobStatusProcessing); err != nil {
		return err
	}

	outcome, err := w.stream(ctx, job, task.Auth, validator, src, log)
	if err != nil {
		return err
	}

	return w.finish(ctx, job, outcome, log, span)
}

// runOutcome accumulates the per-row results of one streaming pass.
type runOutcome struct {
	total    int
	failFast bool
	errs     []debtor.ValidationError
	meta     map[int]RowMeta
}

func (w *Worker) stream(ctx context.Context, job *store.ImportJob, auth core.AuthContext, validator *Validator, src parser.RowSource, log *slog.Logger) (*runOutcome, error) {
	out := &runOutcome{meta: make(map[int]RowMeta)}
	var buffer []*debtor.Record

	// Sample counters feed the early abort; they stop moving once the
	// sample window closes.
	inspected := 0
	invalidInSample := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source file: %w", err)
		}

		out.total++
		job.TotalRecords = out.total
		if inspected < w.cfg.FailFastSampleSize {
			inspected++
		}

		if _, ok := out.meta[rec.RowIndex]; !ok {
			out.meta[rec.RowIndex] = RowMeta{Name: rec.FullName(), Identification: rec.ExternalKey}
		}

		if verrs := validator.Validate(rec); len(verrs) > 0 {
			job.FailedRecords++
			out.errs = append(out.errs, verrs...)

			// Early abort is decided inside the sample window only; rows
			// past it count toward the end-of-file rate instead.
			if out.total <= w.cfg.FailFastSampleSize {
				invalidInSample++
				if ShouldFailFast(inspected, invalidInSample, w.cfg.FailFastThresholdPercent, w.cfg.FailFastSampleSize, false) {
					// Abort without dispatching the in-flight buffer: a
					// file this bad should leave no partial footprint
					// beyond batches already sent.
					log.Warn("fail-fast triggered",
						"inspected", inspected,
						"invalid", invalidInSample,
					)
					out.failFast = true
					return out, nil
				}
			}

			if err := w.tracker.RecordProgress(ctx, job); err != nil {
				return nil, err
			}
			continue
		}

		buffer = append(buffer, rec)
		if len(buffer) >= w.cfg.BatchSize {
			if err := w.dispatch(ctx, job, auth, buffer, out); err != nil {
				return nil, err
			}
			buffer = buffer[:0]
		}
	}

	if len(buffer) > 0 {
		if err := w.dispatch(ctx, job, auth, buffer, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// errCoreComm distinguishes Core communication failures from unhandled ones
// inside execute's error path.
var errCoreComm = errors.New("core communication failed")

func (w *Worker) dispatch(ctx context.Context, job *store.ImportJob, auth core.AuthContext, records []*debtor.Record, out *runOutcome) error {
	req := buildBatch(job.JobID, records)
	resp, err := w.client.ImportBatch(ctx, auth, req)
	if err != nil {
		var commErr *core.CommunicationError
		if errors.As(err, &commErr) {
			return fmt.Errorf("%w: %v", errCoreComm, err)
		}
		return fmt.Errorf("dispatch batch: %w", err)
	}

	job.ProcessedRecords += resp.Data.ProcessedCount
	job.FailedRecords += resp.Data.FailedCount
	for _, rowErr := range resp.Data.Errors {
		out.errs = append(out.errs, debtor.ValidationError{
			RowIndex:    rowErr.RowIndex,
			ExternalKey: rowErr.ExternalKey,
			Message:     rowErr.Message,
		})
	}

	return w.tracker.RecordProgress(ctx, job)
}

func (w *Worker) finish(ctx context.Context, job *store.ImportJob, out *runOutcome, log *slog.Logger, span trace.Span) error {
	if len(out.errs) > 0 {
		ref, err := w.reports.Write(ctx, job, out.errs, out.meta)
		if err != nil {
			log.Error("unable to write error report", "error", err)
		} else {
			job.ErrorFileRef = ref
		}
	}

	// The end-of-file decision uses the cumulative rate over the whole
	// file, Core rejections included, after the remainder batch flushed.
	failFast := out.failFast ||
		ShouldFailFast(job.TotalRecords, job.FailedRecords, w.cfg.FailFastThresholdPercent, w.cfg.FailFastSampleSize, true)

	if failFast {
		if !out.failFast {
			log.Warn("fail-fast triggered at end of file",
				"total", job.TotalRecords,
				"failed", job.FailedRecords,
			)
		}
		span.SetStatus(codes.Error, store.ReasonFailFast)
		if w.metrics != nil {
			w.metrics.JobsFailed.Add(ctx, 1)
			w.metrics.RowsRejected.Add(ctx, int64(job.FailedRecords))
		}
		return w.tracker.Fail(ctx, job, store.ReasonFailFast)
	}

	if err := w.tracker.RecordProgress(ctx, job); err != nil {
		return err
	}
	if err := w.tracker.SetStatus(ctx, job, store.JobStatusCompleted); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.JobsCompleted.Add(ctx, 1)
		w.metrics.RowsImported.Add(ctx, int64(job.ProcessedRecords))
		w.metrics.RowsRejected.Add(ctx, int64(job.FailedRecords))
	}

	log.Info("import job completed",
		"total", job.TotalRecords,
		"processed", job.ProcessedRecords,
		"failed", job.FailedRecords,
	)
	return nil
}
