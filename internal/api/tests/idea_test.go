package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/ideahub/ideahub-server/internal/api/testutils"
	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSubmitIdea(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful submission
	submitReq := models.SubmitIdeaRequest{
		Title:       "Dark mode",
		Description: "Add a dark theme",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas",
		submitReq,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.IdeaResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Idea.ID)
	assert.Equal(t, testCtx.UserID, resp.Idea.AuthorID)
	assert.Equal(t, models.StatusPending, resp.Idea.Status)
	assert.Equal(t, 0, resp.Idea.VoteCount)

	// Test case 2: Missing required fields
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas",
		models.SubmitIdeaRequest{Title: "No description"},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 3: Title over the configured bound
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas",
		models.SubmitIdeaRequest{
			Title:       strings.Repeat("x", 201),
			Description: "valid description",
		},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	err = json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
}

func TestSubmitIdeaRateLimited(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testCtx.Limiter.Allowed = false

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas",
		models.SubmitIdeaRequest{
			Title:       "Flooded",
			Description: "One idea too many",
		},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "TOO_MANY_SUBMISSIONS", errResp.Code)
}

func TestGetAndListIdeas(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	idea := testutils.SubmitTestIdea(t, testCtx, "Listed idea")

	// Detail read
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/ideas/"+idea.ID,
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.IdeaResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, idea.ID, resp.Idea.ID)

	// Unknown id
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/ideas/no-such-idea",
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// List filtered by status
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/ideas?status=pending",
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var listResp models.IdeaListResponse
	err = json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.NoError(t, err)
	assert.Len(t, listResp.Ideas, 1)
}
