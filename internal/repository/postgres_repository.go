package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProjectCreateFunc derives a project from an idea and returns its
// identifier. It is invoked by TransformIdea while the idea row is locked so
// that concurrent transform attempts produce exactly one project.
type ProjectCreateFunc func(ctx context.Context, idea *models.Idea) (string, error)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// Idea operations
	CreateIdea(ctx context.Context, idea *models.Idea) error
	GetIdea(ctx context.Context, ideaID string) (*models.Idea, error)
	ListIdeas(ctx context.Context, status models.IdeaStatus, limit int) ([]models.Idea, error)

	// Vote ledger operations
	HasVoted(ctx context.Context, ideaID, voterID string) (bool, error)
	DailyQuotaUsed(ctx context.Context, voterID string, day time.Time) (int, error)
	// CastVote commits one vote: it re-validates the idea status, re-counts
	// the voter's daily quota against dailyCeiling, inserts the ledger row
	// and increments the idea tally, all in one transaction. Returns the
	// voter's remaining quota for the day after the commit.
	CastVote(ctx context.Context, vote *models.IdeaVote, dailyCeiling int) (int, error)

	// Lifecycle operations
	AdoptIdea(ctx context.Context, ideaID, adminID string, at time.Time) (*models.Idea, error)
	RejectIdea(ctx context.Context, ideaID string, at time.Time) (*models.Idea, error)
	TransformIdea(ctx context.Context, ideaID string, at time.Time, create ProjectCreateFunc) (*models.Idea, error)

	// Audit operations
	AuditVoteCounts(ctx context.Context) ([]models.VoteCountDrift, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// storageErr tags infrastructure failures so callers can distinguish the
// retryable class from the engine's domain errors.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// utcDayBounds returns the UTC calendar-day window containing t. The quota
// day boundary is fixed to UTC everywhere.
func utcDayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// Idea repository methods
func (r *PostgresRepository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	query := `
		INSERT INTO ideas (id, title, description, content, language, author_id, status, vote_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.Description, idea.Content, idea.Language,
		idea.AuthorID, idea.Status, idea.VoteCount, idea.CreatedAt, idea.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}

	return nil
}

func (r *PostgresRepository) GetIdea(ctx context.Context, ideaID string) (*models.Idea, error) {
	query := `SELECT * FROM ideas WHERE id = $1`

	var idea models.Idea
	err := r.db.GetContext(ctx, &idea, query, ideaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrIdeaNotFound
		}
		return nil, storageErr(err)
	}

	return &idea, nil
}

func (r *PostgresRepository) ListIdeas(ctx context.Context, status models.IdeaStatus, limit int) ([]models.Idea, error) {
	query := `SELECT * FROM ideas`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	var ideas []models.Idea
	err := r.db.SelectContext(ctx, &ideas, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}

	return ideas, nil
}

// Vote ledger repository methods
func (r *PostgresRepository) HasVoted(ctx context.Context, ideaID, voterID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM idea_votes WHERE idea_id = $1 AND voter_id = $2)`,
		ideaID, voterID).Scan(&exists)
	if err != nil {
		return false, storageErr(err)
	}

	return exists, nil
}

func (r *PostgresRepository) DailyQuotaUsed(ctx context.Context, voterID string, day time.Time) (int, error) {
	dayStart, dayEnd := utcDayBounds(day)

	var used int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight), 0) FROM idea_votes WHERE voter_id = $1 AND created_at >= $2 AND created_at < $3`,
		voterID, dayStart, dayEnd).Scan(&used)
	if err != nil {
		return 0, storageErr(err)
	}

	return used, nil
}

// CastVote is the vote-commit transaction. The pre-checks the service runs
// are an optimization only; every guard is re-validated here under the locks
// that also cover the tally increment:
//   - the idea row is taken FOR UPDATE, closing the race against a
//     concurrent adopt/reject;
//   - an advisory lock on the voter serializes quota accounting across
//     concurrent votes on different ideas;
//   - the ledger primary key resolves concurrent duplicate votes.
func (r *PostgresRepository) CastVote(ctx context.Context, vote *models.IdeaVote, dailyCeiling int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr(err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Re-validate idea status at commit time
	var status models.IdeaStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM ideas WHERE id = $1 FOR UPDATE`, vote.IdeaID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrNotVotable
			return 0, err
		}
		err = storageErr(err)
		return 0, err
	}
	if status != models.StatusPending {
		err = models.ErrNotVotable
		return 0, err
	}

	// Serialize this voter's quota accounting
	_, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, vote.VoterID)
	if err != nil {
		err = storageErr(err)
		return 0, err
	}

	dayStart, dayEnd := utcDayBounds(vote.CreatedAt)

	var used int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight), 0) FROM idea_votes WHERE voter_id = $1 AND created_at >= $2 AND created_at < $3`,
		vote.VoterID, dayStart, dayEnd).Scan(&used)
	if err != nil {
		err = storageErr(err)
		return 0, err
	}

	if used+vote.Weight > dailyCeiling {
		err = &models.QuotaExceededError{Remaining: dailyCeiling - used}
		return 0, err
	}

	// The ledger insert and the tally increment are one atomic unit
	_, err = tx.ExecContext(ctx,
		`INSERT INTO idea_votes (idea_id, voter_id, weight, created_at) VALUES ($1, $2, $3, $4)`,
		vote.IdeaID, vote.VoterID, vote.Weight, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent duplicate raced past the pre-check; the
			// constraint is the source of truth.
			err = models.ErrAlreadyVoted
			return 0, err
		}
		err = storageErr(err)
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ideas SET vote_count = vote_count + $1, updated_at = $2 WHERE id = $3`,
		vote.Weight, vote.CreatedAt, vote.IdeaID)
	if err != nil {
		err = storageErr(err)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		err = storageErr(err)
		return 0, err
	}

	return dailyCeiling - used - vote.Weight, nil
}

// Lifecycle repository methods

// AdoptIdea moves a pending idea to adopted. The status guard is part of the
// UPDATE itself, so two concurrent transitions produce exactly one winner.
func (r *PostgresRepository) AdoptIdea(ctx context.Context, ideaID, adminID string, at time.Time) (*models.Idea, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ideas SET status = $1, adopted_by = $2, adopted_at = $3, updated_at = $3 WHERE id = $4 AND status = $5`,
		models.StatusAdopted, adminID, at, ideaID, models.StatusPending)
	if err != nil {
		return nil, storageErr(err)
	}

	return r.transitionOutcome(ctx, ideaID, res)
}

// RejectIdea moves a pending idea to rejected, which is terminal.
func (r *PostgresRepository) RejectIdea(ctx context.Context, ideaID string, at time.Time) (*models.Idea, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ideas SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.StatusRejected, at, ideaID, models.StatusPending)
	if err != nil {
		return nil, storageErr(err)
	}

	return r.transitionOutcome(ctx, ideaID, res)
}

// transitionOutcome interprets a conditional transition UPDATE: zero rows
// affected means either the idea does not exist or it was not in the
// required status, which a follow-up read disambiguates.
func (r *PostgresRepository) transitionOutcome(ctx context.Context, ideaID string, res sql.Result) (*models.Idea, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr(err)
	}

	if affected == 0 {
		if _, err := r.GetIdea(ctx, ideaID); err != nil {
			return nil, err
		}
		return nil, models.ErrInvalidTransition
	}

	return r.GetIdea(ctx, ideaID)
}

// TransformIdea derives a project from an adopted idea. The idea row stays
// locked across the external project-creation call, so concurrent transform
// attempts serialize and the loser observes project_ref already set.
func (r *PostgresRepository) TransformIdea(ctx context.Context, ideaID string, at time.Time, create ProjectCreateFunc) (*models.Idea, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var idea models.Idea
	err = tx.GetContext(ctx, &idea, `SELECT * FROM ideas WHERE id = $1 FOR UPDATE`, ideaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrIdeaNotFound
			return nil, err
		}
		err = storageErr(err)
		return nil, err
	}

	if idea.ProjectRef != nil {
		err = models.ErrAlreadyTransformed
		return nil, err
	}
	if idea.Status != models.StatusAdopted {
		err = models.ErrInvalidTransition
		return nil, err
	}

	projectRef, err := create(ctx, &idea)
	if err != nil {
		// Surface the collaborator's error verbatim
		return nil, err
	}

	// The project_ref guard makes the write idempotent even if a second
	// path ever reached this point.
	res, err := tx.ExecContext(ctx,
		`UPDATE ideas SET status = $1, project_ref = $2, updated_at = $3 WHERE id = $4 AND project_ref IS NULL`,
		models.StatusTransformed, projectRef, at, ideaID)
	if err != nil {
		err = storageErr(err)
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		err = storageErr(err)
		return nil, err
	}
	if affected == 0 {
		err = models.ErrAlreadyTransformed
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = storageErr(err)
		return nil, err
	}

	idea.Status = models.StatusTransformed
	idea.ProjectRef = &projectRef
	idea.UpdatedAt = at
	return &idea, nil
}

// Audit repository methods

// AuditVoteCounts reports every idea whose cached vote_count disagrees with
// the ledger. It never repairs anything; drift is an anomaly for operators.
func (r *PostgresRepository) AuditVoteCounts(ctx context.Context) ([]models.VoteCountDrift, error) {
	query := `
		SELECT i.id AS idea_id, i.vote_count AS vote_count, COALESCE(SUM(v.weight), 0) AS ledger_sum
		FROM ideas i
		LEFT JOIN idea_votes v ON v.idea_id = i.id
		GROUP BY i.id, i.vote_count
		HAVING i.vote_count <> COALESCE(SUM(v.weight), 0)
	`

	var drifts []models.VoteCountDrift
	err := r.db.SelectContext(ctx, &drifts, query)
	if err != nil {
		return nil, storageErr(err)
	}

	return drifts, nil
}
