package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/socialflow/internal/metrics"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/publisher"
	"github.com/maheshrc27/socialflow/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const publishConcurrency = 5

var (
	errMissingPost = errors.New("post no longer exists")
	errMissingPage = errors.New("destination page no longer exists")
	errPageRemoved = errors.New("destination page was disconnected")
)

type UnitPublisher interface {
	Publish(ctx context.Context, req publisher.Request) (publisher.Result, error)
}

type TokenResolver interface {
	Resolve(stored string) string
}

// TickLease keeps several instances from running the same tick.
type TickLease interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

// TickReport summarizes one pass over the due units.
type TickReport struct {
	Due       int
	Published int
	Failed    int
	// Skipped counts units claimed by someone else.
	Skipped int
}

type PublishJob struct {
	units     repository.ScheduledPostRepository
	posts     repository.PostRepository
	pages     repository.SocialPageRepository
	postMedia repository.PostMediaRepository
	tokens    TokenResolver
	publisher UnitPublisher
	retry     RetryPolicy
	claimTTL  time.Duration
	// heartbeat is how often an in-flight unit renews its claim. Zero means claimTTL/3.
	heartbeat time.Duration
	lease     TickLease
	leaseTTL  time.Duration
	history   repository.PostingHistoryRepository
	now       func() time.Time
}

func NewPublishJob(
	units repository.ScheduledPostRepository,
	posts repository.PostRepository,
	pages repository.SocialPageRepository,
	postMedia repository.PostMediaRepository,
	tokens TokenResolver,
	pub UnitPublisher,
	retry RetryPolicy,
	claimTTL time.Duration) *PublishJob {
	if retry == nil {
		retry = UnboundedRetry{}
	}
	return &PublishJob{
		units:     units,
		posts:     posts,
		pages:     pages,
		postMedia: postMedia,
		tokens:    tokens,
		publisher: pub,
		retry:     retry,
		claimTTL:  claimTTL,
		now:       time.Now,
	}
}

// WithLease makes every tick first take a shared lease for ttl.
func (j *PublishJob) WithLease(lease TickLease, ttl time.Duration) *PublishJob {
	j.lease = lease
	j.leaseTTL = ttl
	return j
}

// WithHistory records every publish attempt.
func (j *PublishJob) WithHistory(history repository.PostingHistoryRepository) *PublishJob {
	j.history = history
	return j
}

// Run is the cron entry point.
func (j *PublishJob) Run() {
	j.Tick(context.Background())
}

// Tick publishes every due unit this process manages to claim.
func (j *PublishJob) Tick(ctx context.Context) TickReport {
	start := time.Now()
	defer func() { metrics.ObserveTick(time.Since(start)) }()

	if j.lease != nil && j.leaseTTL > 0 {
		release, ok, err := j.lease.Acquire(ctx, j.leaseTTL)
		switch {
		case err != nil:
			slog.Warn("scheduler: tick lease unavailable, relying on unit claims", "error", err)
		case !ok:
			slog.Info("scheduler: another instance holds the tick lease")
			metrics.IncTickSkipped()
			return TickReport{}
		default:
			defer release()
		}
	}

	now := j.now()
	units, err := j.units.DueUnits(ctx, now)
	if err != nil {
		slog.Error("scheduler: failed to load due units", "error", err)
		return TickReport{}
	}

	report := TickReport{Due: len(units)}
	if len(units) == 0 {
		return report
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	semaphore := make(chan struct{}, publishConcurrency)

	for _, unit := range units {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(unit *models.ScheduledPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome := j.processUnit(ctx, unit)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomePublished:
				report.Published++
			case outcomeFailed:
				report.Failed++
			case outcomeSkipped:
				report.Skipped++
			}
		}(unit)
	}
	wg.Wait()

	slog.Info("scheduler: tick finished",
		"due", report.Due, "published", report.Published, "failed", report.Failed, "skipped", report.Skipped,
		"duration", time.Since(start))
	return report
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePublished
	outcomeFailed
)

func (j *PublishJob) processUnit(ctx context.Context, unit *models.ScheduledPost) (result outcome) {
	var token string
	defer func() {
		if p := recover(); p != nil {
			slog.Error("scheduler: unit processing panicked", "unit_id", unit.ID, "panic", p)
			if token != "" {
				j.recordFailure(ctx, unit, token, fmt.Errorf("unexpected failure: %v", p))
			}
			result = outcomeFailed
		}
	}()

	token, err := gonanoid.New()
	if err != nil {
		slog.Error("scheduler: failed to generate claim token", "unit_id", unit.ID, "error", err)
		return outcomeSkipped
	}
	claimed, err := j.units.Claim(ctx, unit.ID, token, j.now(), j.claimTTL)
	if err != nil {
		slog.Error("scheduler: failed to claim unit", "unit_id", unit.ID, "error", err)
		return outcomeSkipped
	}
	if !claimed {
		return outcomeSkipped
	}

	publishCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := j.keepClaim(ctx, unit.ID, token, cancel)
	defer stop()
	res, err := j.publish(publishCtx, unit)
	stop()

	j.recordAttempt(ctx, unit, res.ExternalID, err)
	if err != nil {
		if errors.Is(context.Cause(publishCtx), repository.ErrClaimLost) {
			slog.Warn("scheduler: unit claim lost mid-publish, leaving it to the new holder",
				"unit_id", unit.ID, "error", err)
			return outcomeSkipped
		}
		j.recordFailure(ctx, unit, token, err)
		return outcomeFailed
	}

	if err := j.units.MarkPublished(ctx, unit.ID, token, res.ExternalID, j.now()); err != nil {
		slog.Error("scheduler: failed to mark unit published", "unit_id", unit.ID, "external_id", res.ExternalID, "error", err)
		return outcomeFailed
	}

	metrics.IncUnitPublished(unit.PostType)
	slog.Info("scheduler: unit published", "unit_id", unit.ID, "post_id", unit.PostID, "page_id", unit.PageID,
		"shape", unit.PostType, "external_id", res.ExternalID)
	return outcomePublished
}

func (j *PublishJob) publish(ctx context.Context, unit *models.ScheduledPost) (publisher.Result, error) {
	post, err := j.posts.GetByID(ctx, unit.PostID)
	if err != nil {
		return publisher.Result{}, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return publisher.Result{}, errMissingPost
	}

	page, err := j.pages.GetByID(ctx, unit.PageID)
	if err != nil {
		return publisher.Result{}, fmt.Errorf("load page: %w", err)
	}
	if page == nil {
		return publisher.Result{}, errMissingPage
	}
	if !page.IsActive {
		return publisher.Result{}, errPageRemoved
	}

	media, err := j.postMedia.ListMediaByPostID(ctx, post.ID)
	if err != nil {
		return publisher.Result{}, fmt.Errorf("load media: %w", err)
	}

	return j.publisher.Publish(ctx, publisher.Request{
		Post:        post,
		Page:        page,
		AccessToken: j.tokens.Resolve(page.AccessToken),
		Shape:       unit.PostType,
		Media:       media,
		Progress:    unit.Progress,
	})
}

func isPermanent(err error) bool {
	return publisher.IsPermanent(err) ||
		errors.Is(err, errMissingPost) ||
		errors.Is(err, errMissingPage) ||
		errors.Is(err, errPageRemoved)
}

// keepClaim renews the unit's claim until stop is called; stop may be called more than
// once. When another worker holds the
// claim, or renewals keep failing for a whole claimTTL, lost is called with ErrClaimLost.
func (j *PublishJob) keepClaim(ctx context.Context, unitID int64, token string, lost context.CancelCauseFunc) (stop func()) {
	interval := j.heartbeat
	if interval <= 0 {
		interval = j.claimTTL / 3
	}
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		renewed := j.now()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			now := j.now()
			ok, err := j.units.RenewClaim(ctx, unitID, token, now)
			switch {
			case err == nil && ok:
				renewed = now
			case err == nil:
				slog.Warn("scheduler: unit claimed by another worker", "unit_id", unitID)
				lost(repository.ErrClaimLost)
				return
			case now.Sub(renewed) >= j.claimTTL:
				slog.Error("scheduler: unit claim expired while renewals failed", "unit_id", unitID, "error", err)
				lost(repository.ErrClaimLost)
				return
			default:
				slog.Warn("scheduler: failed to renew unit claim", "unit_id", unitID, "error", err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}

// recordFailure stores the error on the unit. Permanent failures and exhausted retries
// take the unit out of the due set and fail the post.
func (j *PublishJob) recordFailure(ctx context.Context, unit *models.ScheduledPost, token string, cause error) {
	now := j.now()

	progress := unit.Progress
	var partial *publisher.PartialError
	if errors.As(cause, &partial) {
		progress = partial.Completed
	}

	permanent := isPermanent(cause)
	var next *time.Time
	if !permanent {
		var giveUp bool
		next, giveUp = j.retry.Next(unit.Attempts+1, now)
		permanent = giveUp
	}

	failure := repository.UnitFailure{
		Message:       cause.Error(),
		At:            now,
		NextAttemptAt: next,
		Progress:      progress,
		Permanent:     permanent,
	}
	if err := j.units.MarkError(ctx, unit.ID, token, failure); err != nil {
		slog.Error("scheduler: failed to record unit error", "unit_id", unit.ID, "cause", cause, "error", err)
	}

	metrics.IncUnitFailed(unit.PostType, permanent)
	slog.Warn("scheduler: unit failed", "unit_id", unit.ID, "post_id", unit.PostID, "page_id", unit.PageID,
		"shape", unit.PostType, "attempt", unit.Attempts+1, "permanent", permanent, "error", cause)
}

func (j *PublishJob) recordAttempt(ctx context.Context, unit *models.ScheduledPost, externalID string, cause error) {
	if j.history == nil {
		return
	}

	entry := &models.PostingHistory{
		UnitID:     unit.ID,
		PostID:     unit.PostID,
		PageID:     unit.PageID,
		Attempt:    unit.Attempts + 1,
		ExternalID: externalID,
		CreatedAt:  j.now(),
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	if _, err := j.history.Create(ctx, entry); err != nil {
		slog.Error("scheduler: failed to save posting history", "unit_id", unit.ID, "error", err)
	}
}
