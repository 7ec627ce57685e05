package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/ideahub/ideahub-server/internal/api/testutils"
	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCastVote(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	idea := testutils.SubmitTestIdea(t, testCtx, "Votable idea")

	voterJWT := testutils.IssueToken(t, "voter-1", "member")

	// Test case 1: Successful vote with weight 2
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/votes",
		models.CastVoteRequest{Weight: 2},
		testutils.AuthHeaders(voterJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var voteResp models.CastVoteResponse
	err := json.Unmarshal(w.Body.Bytes(), &voteResp)
	assert.NoError(t, err)
	assert.Equal(t, 2, voteResp.WeightApplied)
	assert.Equal(t, 8, voteResp.RemainingDailyQuota)

	// Test case 2: Duplicate vote by the same voter
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/votes",
		models.CastVoteRequest{Weight: 1},
		testutils.AuthHeaders(voterJWT),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	err = json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "ALREADY_VOTED", errResp.Code)

	// The tally reflects exactly one committed vote
	updated, err := testCtx.Repository.GetIdea(context.Background(), idea.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, updated.VoteCount)

	// Test case 3: Invalid weight
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/votes",
		models.CastVoteRequest{Weight: 3},
		testutils.AuthHeaders(testutils.IssueToken(t, "voter-2", "member")),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Unknown idea
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/no-such-idea/votes",
		models.CastVoteRequest{Weight: 1},
		testutils.AuthHeaders(voterJWT),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "NOT_VOTABLE", errResp.Code)
}

func TestCastVoteOnNonPendingIdea(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	idea := testutils.SubmitTestIdea(t, testCtx, "Soon adopted")

	// Admin adopts the idea, freezing its tally
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/transition",
		models.TransitionRequest{Action: "adopt"},
		testutils.AuthHeaders(testCtx.AdminJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/votes",
		models.CastVoteRequest{Weight: 1},
		testutils.AuthHeaders(testutils.IssueToken(t, "voter-b", "member")),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "NOT_VOTABLE", errResp.Code)
}

func TestDailyQuota(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	voterJWT := testutils.IssueToken(t, "voter-c", "member")

	// Five weight-2 votes against five distinct ideas exhaust the quota
	for i := 0; i < 5; i++ {
		idea := testutils.SubmitTestIdea(t, testCtx, fmt.Sprintf("Quota idea %d", i))

		w := testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			"/api/ideas/"+idea.ID+"/votes",
			models.CastVoteRequest{Weight: 2},
			testutils.AuthHeaders(voterJWT),
		)

		assert.Equal(t, http.StatusOK, w.Code)

		var voteResp models.CastVoteResponse
		err := json.Unmarshal(w.Body.Bytes(), &voteResp)
		assert.NoError(t, err)
		assert.Equal(t, 10-2*(i+1), voteResp.RemainingDailyQuota)
	}

	// The sixth vote fails and the quota stays at zero
	idea := testutils.SubmitTestIdea(t, testCtx, "One idea too far")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas/"+idea.ID+"/votes",
		models.CastVoteRequest{Weight: 1},
		testutils.AuthHeaders(voterJWT),
	)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "QUOTA_EXCEEDED", errResp.Code)
	assert.NotNil(t, errResp.RemainingQuota)
	assert.Equal(t, 0, *errResp.RemainingQuota)

	// Nothing was partially applied
	updated, err := testCtx.Repository.GetIdea(context.Background(), idea.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, updated.VoteCount)
}
