package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ideahub/ideahub-server/internal/models"
)

type voteKey struct {
	ideaID  string
	voterID string
}

// MemoryRepository implements the Repository interface in process memory.
// It honors the same commit semantics as the Postgres implementation (one
// vote per (idea, voter), status re-validation at commit time, serialized
// transitions), so the service and API test suites run against it without a
// database.
type MemoryRepository struct {
	mu    sync.Mutex
	ideas map[string]models.Idea
	votes map[voteKey]models.IdeaVote
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ideas: make(map[string]models.Idea),
		votes: make(map[voteKey]models.IdeaVote),
	}
}

func (r *MemoryRepository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ideas[idea.ID] = *idea
	return nil
}

func (r *MemoryRepository) GetIdea(ctx context.Context, ideaID string) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idea, ok := r.ideas[ideaID]
	if !ok {
		return nil, models.ErrIdeaNotFound
	}
	return &idea, nil
}

func (r *MemoryRepository) ListIdeas(ctx context.Context, status models.IdeaStatus, limit int) ([]models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas := make([]models.Idea, 0, len(r.ideas))
	for _, idea := range r.ideas {
		if status != "" && idea.Status != status {
			continue
		}
		ideas = append(ideas, idea)
	}

	sort.Slice(ideas, func(i, j int) bool {
		return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
	})

	if limit > 0 && len(ideas) > limit {
		ideas = ideas[:limit]
	}
	return ideas, nil
}

func (r *MemoryRepository) HasVoted(ctx context.Context, ideaID, voterID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.votes[voteKey{ideaID, voterID}]
	return ok, nil
}

func (r *MemoryRepository) DailyQuotaUsed(ctx context.Context, voterID string, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.quotaUsedLocked(voterID, day), nil
}

func (r *MemoryRepository) quotaUsedLocked(voterID string, day time.Time) int {
	dayStart, dayEnd := utcDayBounds(day)

	used := 0
	for _, v := range r.votes {
		if v.VoterID != voterID {
			continue
		}
		created := v.CreatedAt.UTC()
		if !created.Before(dayStart) && created.Before(dayEnd) {
			used += v.Weight
		}
	}
	return used
}

func (r *MemoryRepository) CastVote(ctx context.Context, vote *models.IdeaVote, dailyCeiling int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idea, ok := r.ideas[vote.IdeaID]
	if !ok || idea.Status != models.StatusPending {
		return 0, models.ErrNotVotable
	}

	if _, ok := r.votes[voteKey{vote.IdeaID, vote.VoterID}]; ok {
		return 0, models.ErrAlreadyVoted
	}

	used := r.quotaUsedLocked(vote.VoterID, vote.CreatedAt)
	if used+vote.Weight > dailyCeiling {
		return 0, &models.QuotaExceededError{Remaining: dailyCeiling - used}
	}

	r.votes[voteKey{vote.IdeaID, vote.VoterID}] = *vote
	idea.VoteCount += vote.Weight
	idea.UpdatedAt = vote.CreatedAt
	r.ideas[vote.IdeaID] = idea

	return dailyCeiling - used - vote.Weight, nil
}

func (r *MemoryRepository) AdoptIdea(ctx context.Context, ideaID, adminID string, at time.Time) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idea, ok := r.ideas[ideaID]
	if !ok {
		return nil, models.ErrIdeaNotFound
	}
	if idea.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}

	idea.Status = models.StatusAdopted
	idea.AdoptedBy = &adminID
	idea.AdoptedAt = &at
	idea.UpdatedAt = at
	r.ideas[ideaID] = idea
	return &idea, nil
}

func (r *MemoryRepository) RejectIdea(ctx context.Context, ideaID string, at time.Time) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idea, ok := r.ideas[ideaID]
	if !ok {
		return nil, models.ErrIdeaNotFound
	}
	if idea.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}

	idea.Status = models.StatusRejected
	idea.UpdatedAt = at
	r.ideas[ideaID] = idea
	return &idea, nil
}

func (r *MemoryRepository) TransformIdea(ctx context.Context, ideaID string, at time.Time, create ProjectCreateFunc) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idea, ok := r.ideas[ideaID]
	if !ok {
		return nil, models.ErrIdeaNotFound
	}
	if idea.ProjectRef != nil {
		return nil, models.ErrAlreadyTransformed
	}
	if idea.Status != models.StatusAdopted {
		return nil, models.ErrInvalidTransition
	}

	// The lock is held across the collaborator call, matching the row-lock
	// behavior of the Postgres implementation.
	projectRef, err := create(ctx, &idea)
	if err != nil {
		return nil, err
	}

	idea.Status = models.StatusTransformed
	idea.ProjectRef = &projectRef
	idea.UpdatedAt = at
	r.ideas[ideaID] = idea
	return &idea, nil
}

func (r *MemoryRepository) AuditVoteCounts(ctx context.Context) ([]models.VoteCountDrift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sums := make(map[string]int)
	for _, v := range r.votes {
		sums[v.IdeaID] += v.Weight
	}

	var drifts []models.VoteCountDrift
	for id, idea := range r.ideas {
		if idea.VoteCount != sums[id] {
			drifts = append(drifts, models.VoteCountDrift{
				IdeaID:    id,
				VoteCount: idea.VoteCount,
				LedgerSum: sums[id],
			})
		}
	}
	return drifts, nil
}
