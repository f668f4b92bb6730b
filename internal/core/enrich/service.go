package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"placelink/internal/config"
	"placelink/internal/core/notify"
	"placelink/internal/core/resolve"
	"placelink/internal/logger"
	"placelink/internal/platform/tasks"

	"github.com/hibiken/asynq"
)

// EntryStore is the slice of the store the service needs.
type EntryStore interface {
	GetEntry(ctx context.Context, provider, placeID string) (*CacheEntry, error)
	PutEntry(ctx context.Context, provider, placeID string, entry CacheEntry) error
	AcquireLock(ctx context.Context, provider, placeID, token string) (bool, error)
	ReleaseLock(ctx context.Context, provider, placeID, token string) (bool, error)
}

// PatchPublisher publishes terminal patches to waiting clients.
type PatchPublisher interface {
	PublishPatch(ctx context.Context, provider, placeID, requestID string, entry notify.PatchEntry) error
}

// Resolver runs the layered deep-link strategy for one entity.
type Resolver interface {
	Resolve(ctx context.Context, providerKey, name, cityHint string) (resolve.Result, error)
}

// TaskEnqueuer abstracts the asynq client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) error
}

const queueName = "enrich"

type Service struct {
	store    EntryStore
	resolver Resolver
	notify   PatchPublisher
	tasks    TaskEnqueuer
	cfg      config.Config
	log      *logger.Logger
}

func NewService(store EntryStore, resolver Resolver, notifier PatchPublisher, taskClient TaskEnqueuer, cfg config.Config) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		notify:   notifier,
		tasks:    taskClient,
		cfg:      cfg,
		log:      logger.New("EnrichService"),
	}
}

func taskID(job Job) string { return "enrich:" + job.Provider + ":" + job.PlaceID }

// Enqueue submits a job, fire-and-forget. A job for the same entity that is
// still queued is dropped: the asynq task id doubles as the dedup key. This
// is a secondary safety net; primary dedup is the caller's lock check.
// Returns whether the job was actually queued.
func (s *Service) Enqueue(ctx context.Context, job Job) (bool, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	task := asynq.NewTask(tasks.TaskTypeEnrich, payload)
	// MaxRetry(0): retries are owned by processJob's own loop so the
	// one-terminal-patch guarantee holds.
	err = s.tasks.Enqueue(task,
		asynq.Queue(queueName),
		asynq.MaxRetry(0),
		asynq.TaskID(taskID(job)),
		asynq.Timeout(s.cfg.JobTimeout+10*time.Second),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		s.log.LogInfof("dropping duplicate job for %s/%s (already queued)", job.Provider, job.PlaceID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.LogInfof("enqueued enrichment for %s/%s (request %s)", job.Provider, job.PlaceID, job.RequestID)
	return true, nil
}

// HandleEnrichTask is the asynq handler. It always returns nil: every
// failure converges on a terminal NOT_FOUND patch here, never on an
// asynq-level retry. This is the queue-side safety net; processJob carries
// its own, and both publish the identical fallback patch shape.
func (s *Service) HandleEnrichTask(ctx context.Context, task *asynq.Task) error {
	var job Job
	if uerr := json.Unmarshal(task.Payload(), &job); uerr != nil {
		s.log.LogErrorf("dropping enrich task with malformed payload: %v", uerr)
		return nil
	}
	if job.Provider == "" {
		job.Provider = s.cfg.DefaultProvider
	}

	published := false
	defer func() {
		if r := recover(); r != nil {
			s.log.LogErrorf("enrichment for %s/%s died: %v", job.Provider, job.PlaceID, r)
		}
		if !published {
			s.publishFallback(job)
		}
	}()
	published = s.processJob(ctx, job)
	return nil
}

// processJob runs one job end-to-end under the overall deadline:
// PENDING → RESOLVING (attempt 1..N) → SUCCEEDED | FAILED. Every path out,
// including panics, converges on exactly one cache write and one patch
// publish via the deferred finalizer. Reports whether that happened.
func (s *Service) processJob(ctx context.Context, job Job) (published bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	var result resolve.Result
	resolved := false

	defer func() {
		if r := recover(); r != nil {
			s.log.LogErrorf("panic enriching %s/%s: %v", job.Provider, job.PlaceID, r)
		}
		if !resolved {
			// Terminal failure: indistinguishable from a resolved
			// NOT_FOUND except through logs, so no meta.
			result = resolve.Result{Status: resolve.StatusNotFound}
		}
		published = s.finalize(job, result)
	}()

	retries := 0
	for {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
		res, err := s.resolver.Resolve(attemptCtx, job.Provider, job.Name, job.CityHint)
		attemptCancel()

		if err == nil {
			result = res
			resolved = true
			layer := 0
			if res.Meta != nil {
				layer = res.Meta.LayerUsed
			}
			s.log.LogInfof("resolved %s/%s: status=%s layer=%d retries=%d elapsed=%v",
				job.Provider, job.PlaceID, res.Status, layer, retries, time.Since(start))
			return
		}

		if resolve.Classify(err) != resolve.ClassTransient {
			s.log.LogWarnf("permanent failure enriching %s/%s: %v", job.Provider, job.PlaceID, err)
			return
		}
		if retries >= s.cfg.MaxRetries {
			s.log.LogWarnf("retries exhausted enriching %s/%s after %d attempts: %v",
				job.Provider, job.PlaceID, retries+1, err)
			return
		}

		delay := s.cfg.RetryBaseDelay * (1 << retries)
		retries++
		s.log.LogWarnf("transient failure enriching %s/%s, retry %d/%d in %v: %v",
			job.Provider, job.PlaceID, retries, s.cfg.MaxRetries, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.log.LogWarnf("job deadline expired during backoff for %s/%s", job.Provider, job.PlaceID)
			return
		}
	}
}

// finalize performs the single terminal cache write + patch publish and the
// best-effort lock release. Runs on a fresh context: the job deadline may
// already have fired and a waiting client still needs its patch.
func (s *Service) finalize(job Job, result resolve.Result) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := CacheEntry{
		URL:       result.URL,
		Status:    result.Status,
		UpdatedAt: time.Now().UTC(),
		Meta:      result.Meta,
	}
	if err := s.store.PutEntry(ctx, job.Provider, job.PlaceID, entry); err != nil {
		// Fail open: the client still gets its patch, the lock TTL covers
		// the stale-cache window.
		s.log.LogError("cache write failed for "+job.Provider+"/"+job.PlaceID, err)
	}

	patch := notify.PatchEntry{Status: entry.Status, URL: entry.URL, UpdatedAt: entry.UpdatedAt, Meta: entry.Meta}
	if err := s.notify.PublishPatch(ctx, job.Provider, job.PlaceID, job.RequestID, patch); err != nil {
		s.log.LogError("patch publish failed for request "+job.RequestID, err)
	}

	s.releaseLock(ctx, job)
	return true
}

// publishFallback is the queue-level safety net: a waiting client is never
// left hanging, even when processing died before the worker's own net
// armed. Shape is identical to the worker's terminal NOT_FOUND patch.
func (s *Service) publishFallback(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := CacheEntry{Status: resolve.StatusNotFound, UpdatedAt: time.Now().UTC()}
	if err := s.store.PutEntry(ctx, job.Provider, job.PlaceID, entry); err != nil {
		s.log.LogError("fallback cache write failed for "+job.Provider+"/"+job.PlaceID, err)
	}
	patch := notify.PatchEntry{Status: entry.Status, UpdatedAt: entry.UpdatedAt}
	if err := s.notify.PublishPatch(ctx, job.Provider, job.PlaceID, job.RequestID, patch); err != nil {
		s.log.LogError("fallback patch publish failed for request "+job.RequestID, err)
	}
	s.releaseLock(ctx, job)
}

func (s *Service) releaseLock(ctx context.Context, job Job) {
	if job.LockToken == "" {
		return
	}
	released, err := s.store.ReleaseLock(ctx, job.Provider, job.PlaceID, job.LockToken)
	if err != nil {
		s.log.LogError("lock release failed for "+job.Provider+"/"+job.PlaceID, err)
		return
	}
	if !released {
		// Lock expired or was re-acquired; the TTL already did our job.
		s.log.LogDebugf("lock for %s/%s no longer held by this job", job.Provider, job.PlaceID)
	}
}
