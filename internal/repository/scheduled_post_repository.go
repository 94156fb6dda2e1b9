package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/maheshrc27/socialflow/internal/models"
)

// UnitFailure describes a failed publish attempt to be recorded on a unit.
type UnitFailure struct {
	Message string
	At      time.Time
	// NextAttemptAt delays the unit's next eligibility. Nil means the next poll.
	NextAttemptAt *time.Time
	// Progress holds external ids of story items published before the failure.
	Progress []string
	// Permanent removes the unit from the due set and fails the parent post.
	Permanent bool
}

type UnitFilter struct {
	UserID int64
	PageID int64
	Status string
	Start  *time.Time
	End    *time.Time
}

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, unit *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	DueUnits(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id int64, token string, now time.Time, ttl time.Duration) (bool, error)
	RenewClaim(ctx context.Context, id int64, token string, now time.Time) (bool, error)
	MarkPublished(ctx context.Context, id int64, token, externalID string, publishedAt time.Time) error
	MarkError(ctx context.Context, id int64, token string, failure UnitFailure) error
	List(ctx context.Context, filter UnitFilter) ([]*models.ScheduledPost, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.ScheduledPost, error)
	DeletePending(ctx context.Context, id, userID int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var scheduledPostColumns = []string{
	"sp.id", "sp.post_id", "sp.page_id", "sp.post_type", "sp.scheduled_at", "sp.published_at",
	"sp.external_post_id", "sp.error", "sp.attempts", "sp.next_attempt_at", "sp.failed_at",
	"sp.claimed_at", "sp.claim_token", "sp.progress", "sp.created_at",
}

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var u models.ScheduledPost
	err := row.Scan(&u.ID, &u.PostID, &u.PageID, &u.PostType, &u.ScheduledAt, &u.PublishedAt,
		&u.ExternalPostID, &u.Error, &u.Attempts, &u.NextAttemptAt, &u.FailedAt,
		&u.ClaimedAt, &u.ClaimToken, pq.Array(&u.Progress), &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, unit *models.ScheduledPost) (int64, error) {
	if unit.PostType == models.PostTypeBoth {
		return 0, fmt.Errorf("unit for post %d: combined shape must be split before scheduling", unit.PostID)
	}

	query := `
		INSERT INTO scheduled_posts (post_id, page_id, post_type, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, unit.PostID, unit.PageID, unit.PostType, unit.ScheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, unit.PostID, unit.PageID, unit.PostType, unit.ScheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query, args, err := r.sb.Select(scheduledPostColumns...).
		From("scheduled_posts sp").
		Where(sq.Eq{"sp.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	unit, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return unit, nil
}

// DueUnits returns unpublished, non-failed units whose time has come, including ones
// that errored on earlier attempts once their backoff has elapsed.
func (r *scheduledPostRepository) DueUnits(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query, args, err := r.sb.Select(scheduledPostColumns...).
		From("scheduled_posts sp").
		Where("sp.published_at IS NULL").
		Where("sp.failed_at IS NULL").
		Where(sq.LtOrEq{"sp.scheduled_at": now}).
		Where(sq.Or{
			sq.Eq{"sp.next_attempt_at": nil},
			sq.LtOrEq{"sp.next_attempt_at": now},
		}).
		OrderBy("sp.scheduled_at", "sp.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, query, args...)
}

// Claim marks the unit in flight under token. It returns false when the unit is already
// published, failed, or held by a claim younger than ttl.
func (r *scheduledPostRepository) Claim(ctx context.Context, id int64, token string, now time.Time, ttl time.Duration) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET claimed_at = $2, claim_token = $3
		WHERE id = $1
			AND published_at IS NULL
			AND failed_at IS NULL
			AND (claimed_at IS NULL OR claimed_at < $4)
	`
	return r.execOne(ctx, query, id, now, token, now.Add(-ttl))
}

// RenewClaim moves claimed_at forward while token still holds the claim.
func (r *scheduledPostRepository) RenewClaim(ctx context.Context, id int64, token string, now time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET claimed_at = $2
		WHERE id = $1 AND claim_token = $3 AND published_at IS NULL
	`
	return r.execOne(ctx, query, id, now, token)
}

func (r *scheduledPostRepository) execOne(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkPublished records the external id and sets the parent post to published in the
// same transaction. It fails with ErrClaimLost unless token still holds the claim.
func (r *scheduledPostRepository) MarkPublished(ctx context.Context, id int64, token, externalID string, publishedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	var postID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE scheduled_posts
		SET published_at = $2,
			external_post_id = $3,
			error = '',
			next_attempt_at = NULL,
			claimed_at = NULL,
			claim_token = ''
		WHERE id = $1 AND claim_token = $4 AND published_at IS NULL
		RETURNING post_id
	`, id, publishedAt, externalID, token).Scan(&postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrClaimLost
		}
		slog.Info(err.Error())
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE posts SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.PostStatusPublished, postID); err != nil {
		slog.Info(err.Error())
		return err
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkError annotates the unit with the failure and releases its claim. Scheduled time is
// untouched so a non-permanent failure stays due. A permanent failure also fails the post.
// Like MarkPublished it only applies while token holds the claim.
func (r *scheduledPostRepository) MarkError(ctx context.Context, id int64, token string, failure UnitFailure) error {
	progress := failure.Progress
	if progress == nil {
		progress = []string{}
	}
	var failedAt *time.Time
	if failure.Permanent {
		at := failure.At
		failedAt = &at
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	var postID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE scheduled_posts
		SET error = $2,
			attempts = attempts + 1,
			next_attempt_at = $3,
			progress = $4,
			failed_at = $5,
			claimed_at = NULL,
			claim_token = ''
		WHERE id = $1 AND claim_token = $6 AND published_at IS NULL
		RETURNING post_id
	`, id, failure.Message, failure.NextAttemptAt, pq.Array(progress), failedAt, token).Scan(&postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrClaimLost
		}
		slog.Info(err.Error())
		return err
	}

	if failure.Permanent {
		if _, err = tx.ExecContext(ctx, `UPDATE posts SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.PostStatusFailed, postID); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) List(ctx context.Context, filter UnitFilter) ([]*models.ScheduledPost, error) {
	builder := r.sb.Select(scheduledPostColumns...).
		From("scheduled_posts sp").
		Join("posts p ON p.id = sp.post_id").
		Where(sq.Eq{"p.user_id": filter.UserID}).
		OrderBy("sp.scheduled_at", "sp.id")

	if filter.PageID != 0 {
		builder = builder.Where(sq.Eq{"sp.page_id": filter.PageID})
	}
	if filter.Start != nil {
		builder = builder.Where(sq.GtOrEq{"sp.scheduled_at": *filter.Start})
	}
	if filter.End != nil {
		builder = builder.Where(sq.Lt{"sp.scheduled_at": *filter.End})
	}

	switch filter.Status {
	case "":
	case models.UnitStatusPending:
		builder = builder.Where("sp.published_at IS NULL AND sp.failed_at IS NULL")
	case models.UnitStatusErrored:
		builder = builder.Where("sp.published_at IS NULL AND sp.failed_at IS NULL AND sp.error <> ''")
	case models.UnitStatusPublished:
		builder = builder.Where("sp.published_at IS NOT NULL")
	case models.UnitStatusFailed:
		builder = builder.Where("sp.failed_at IS NOT NULL")
	default:
		return nil, fmt.Errorf("unknown unit status %q", filter.Status)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, query, args...)
}

func (r *scheduledPostRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.ScheduledPost, error) {
	query, args, err := r.sb.Select(scheduledPostColumns...).
		From("scheduled_posts sp").
		Where(sq.Eq{"sp.post_id": postID}).
		OrderBy("sp.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, query, args...)
}

func (r *scheduledPostRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var units []*models.ScheduledPost
	for rows.Next() {
		unit, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// DeletePending removes a unit owned by userID. Published or failed units are kept.
func (r *scheduledPostRepository) DeletePending(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_posts sp
		USING posts p
		WHERE sp.id = $1
			AND sp.post_id = p.id
			AND p.user_id = $2
			AND sp.published_at IS NULL
			AND sp.failed_at IS NULL
	`, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `
		SELECT 1 FROM scheduled_posts sp
		JOIN posts p ON p.id = sp.post_id
		WHERE sp.id = $1 AND p.user_id = $2
	`, id, userID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		slog.Info(err.Error())
		return err
	}
	return ErrNotPending
}
