package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ideahub/ideahub-server/internal/config"
	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/ideahub/ideahub-server/internal/repository"
	"github.com/ideahub/ideahub-server/internal/utils"
)

// SubmissionLimiter throttles idea creation per author. The check is
// advisory: a small race allowing one extra submission is acceptable, unlike
// the vote-uniqueness and quota guards which are transactionally exact.
type SubmissionLimiter interface {
	Allow(ctx context.Context, authorID string, now time.Time) (bool, error)
}

// ProjectCreator derives a tracked project from an adopted idea. It is the
// external collaborator invoked by the transform transition.
type ProjectCreator interface {
	CreateProject(ctx context.Context, idea *models.Idea) (string, error)
}

// VoteReceipt is the result of a successful vote commit.
type VoteReceipt struct {
	WeightApplied       int
	RemainingDailyQuota int
}

// Service defines all the business logic operations
type Service interface {
	// Submission gate
	SubmitIdea(ctx context.Context, authorID string, req models.SubmitIdeaRequest) (*models.Idea, error)

	// Vote accountant
	CastVote(ctx context.Context, voterID, ideaID string, weight int) (*VoteReceipt, error)

	// Lifecycle controller
	TransitionIdea(ctx context.Context, actor models.Actor, ideaID string, req models.TransitionRequest) (*models.Idea, error)

	// Reads
	GetIdea(ctx context.Context, ideaID string) (*models.Idea, error)
	ListIdeas(ctx context.Context, status string, limit int) ([]models.Idea, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo     repository.Repository
	limiter  SubmissionLimiter
	projects ProjectCreator
	logger   *utils.Logger
	engine   config.EngineConfig
	now      func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(
	repo repository.Repository,
	limiter SubmissionLimiter,
	projects ProjectCreator,
	logger *utils.Logger,
	engine config.EngineConfig,
) *DefaultService {
	return &DefaultService{
		repo:     repo,
		limiter:  limiter,
		projects: projects,
		logger:   logger,
		engine:   engine,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submission gate

// SubmitIdea validates the submission, applies the per-author rate limit and
// creates the idea in the pending state with an empty tally.
func (s *DefaultService) SubmitIdea(ctx context.Context, authorID string, req models.SubmitIdeaRequest) (*models.Idea, error) {
	if req.Title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "required"}
	}
	if len(req.Title) > s.engine.TitleMaxLen {
		return nil, &models.ValidationError{Field: "title", Reason: fmt.Sprintf("longer than %d characters", s.engine.TitleMaxLen)}
	}
	if req.Description == "" {
		return nil, &models.ValidationError{Field: "description", Reason: "required"}
	}
	if len(req.Description) > s.engine.DescriptionMaxLen {
		return nil, &models.ValidationError{Field: "description", Reason: fmt.Sprintf("longer than %d characters", s.engine.DescriptionMaxLen)}
	}
	if len(req.Content) > s.engine.ContentMaxLen {
		return nil, &models.ValidationError{Field: "content", Reason: fmt.Sprintf("longer than %d characters", s.engine.ContentMaxLen)}
	}

	now := s.now()

	allowed, err := s.limiter.Allow(ctx, authorID, now)
	if err != nil {
		// The rate limit is best-effort; a limiter outage must not block
		// submissions.
		s.logger.Error("submission limiter unavailable, allowing submission: %v", err)
	} else if !allowed {
		return nil, models.ErrTooManySubmissions
	}

	idea := &models.Idea{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Language:    req.Language,
		AuthorID:    authorID,
		Status:      models.StatusPending,
		VoteCount:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateIdea(ctx, idea); err != nil {
		return nil, fmt.Errorf("error creating idea: %w", err)
	}

	return idea, nil
}

// Vote accountant

// CastVote validates and commits a single vote. The pre-checks run in order
// and short-circuit; they only exist to avoid pointless transaction
// attempts. The commit transaction in the repository re-validates every
// guard, and the ledger's uniqueness constraint is the authoritative
// double-vote defense.
func (s *DefaultService) CastVote(ctx context.Context, voterID, ideaID string, weight int) (*VoteReceipt, error) {
	// 1. Weight must be 1 or 2
	if weight != 1 && weight != 2 {
		return nil, &models.ValidationError{Field: "weight", Reason: "must be 1 or 2"}
	}

	// 2. The idea must exist and still accept votes
	idea, err := s.repo.GetIdea(ctx, ideaID)
	if err != nil {
		if errors.Is(err, models.ErrIdeaNotFound) {
			return nil, models.ErrNotVotable
		}
		return nil, fmt.Errorf("error reading idea: %w", err)
	}
	if idea.Status != models.StatusPending {
		return nil, models.ErrNotVotable
	}

	// 3. The voter must not already hold a ledger entry
	voted, err := s.repo.HasVoted(ctx, ideaID, voterID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing vote: %w", err)
	}
	if voted {
		return nil, models.ErrAlreadyVoted
	}

	now := s.now()

	// 4. The vote must fit in the voter's remaining daily quota
	used, err := s.repo.DailyQuotaUsed(ctx, voterID, now)
	if err != nil {
		return nil, fmt.Errorf("error reading daily quota: %w", err)
	}
	if used+weight > s.engine.DailyVoteQuota {
		return nil, &models.QuotaExceededError{Remaining: s.engine.DailyVoteQuota - used}
	}

	vote := &models.IdeaVote{
		IdeaID:    ideaID,
		VoterID:   voterID,
		Weight:    weight,
		CreatedAt: now,
	}

	remaining, err := s.repo.CastVote(ctx, vote, s.engine.DailyVoteQuota)
	if err != nil {
		return nil, err
	}

	return &VoteReceipt{
		WeightApplied:       weight,
		RemainingDailyQuota: remaining,
	}, nil
}

// Lifecycle controller

// TransitionIdea drives an admin-initiated status transition. All paths go
// through conditional writes in the repository, so concurrent transitions on
// one idea produce exactly one winner.
func (s *DefaultService) TransitionIdea(ctx context.Context, actor models.Actor, ideaID string, req models.TransitionRequest) (*models.Idea, error) {
	if !actor.Admin {
		return nil, models.ErrForbidden
	}

	now := s.now()

	switch req.Action {
	case "adopt":
		return s.repo.AdoptIdea(ctx, ideaID, actor.UserID, now)
	case "reject":
		idea, err := s.repo.RejectIdea(ctx, ideaID, now)
		if err != nil {
			return nil, err
		}
		// Persisting the reason is the surrounding audit system's concern.
		s.logger.Info("idea %s rejected by %s: %s", ideaID, actor.UserID, req.Reason)
		return idea, nil
	case "transform":
		return s.repo.TransformIdea(ctx, ideaID, now, func(ctx context.Context, idea *models.Idea) (string, error) {
			return s.projects.CreateProject(ctx, idea)
		})
	default:
		return nil, &models.ValidationError{Field: "action", Reason: "must be adopt, reject or transform"}
	}
}

// Reads

func (s *DefaultService) GetIdea(ctx context.Context, ideaID string) (*models.Idea, error) {
	return s.repo.GetIdea(ctx, ideaID)
}

func (s *DefaultService) ListIdeas(ctx context.Context, status string, limit int) ([]models.Idea, error) {
	if status != "" && !models.IdeaStatus(status).Valid() {
		return nil, &models.ValidationError{Field: "status", Reason: "unknown status value"}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListIdeas(ctx, models.IdeaStatus(status), limit)
}
