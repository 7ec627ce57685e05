package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ideahub/ideahub-server/internal/api"
	"github.com/ideahub/ideahub-server/internal/config"
	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/ideahub/ideahub-server/internal/repository"
	"github.com/ideahub/ideahub-server/internal/service"
	"github.com/ideahub/ideahub-server/internal/utils"
	"github.com/stretchr/testify/assert"
)

const testJWTSecret = "test-secret-key"

// StubLimiter is a SubmissionLimiter with fixed behavior for tests.
type StubLimiter struct {
	Allowed bool
	Err     error
}

func (l *StubLimiter) Allow(ctx context.Context, authorID string, now time.Time) (bool, error) {
	return l.Allowed, l.Err
}

// StubProjectCreator counts collaborator calls and returns a fixed project id.
type StubProjectCreator struct {
	mu    sync.Mutex
	calls int

	ProjectID string
	Err       error
}

func (p *StubProjectCreator) CreateProject(ctx context.Context, idea *models.Idea) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	if p.ProjectID != "" {
		return p.ProjectID, nil
	}
	return "project-" + idea.ID, nil
}

// Calls returns how many times the collaborator was invoked.
func (p *StubProjectCreator) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository *repository.MemoryRepository
	Service    service.Service
	Limiter    *StubLimiter
	Projects   *StubProjectCreator

	UserID   string
	UserJWT  string
	AdminID  string
	AdminJWT string
}

// SetupTestContext wires the full HTTP stack over the in-memory repository.
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	limiter := &StubLimiter{Allowed: true}
	creator := &StubProjectCreator{}

	engineCfg := config.EngineConfig{
		TitleMaxLen:       200,
		DescriptionMaxLen: 1000,
		ContentMaxLen:     10000,
		DailyVoteQuota:    10,
		SubmissionLimit:   5,
		SubmissionWindow:  time.Hour,
	}

	svc := service.NewDefaultService(repo, limiter, creator, utils.NewLogger(), engineCfg)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	userID := "user-1"
	adminID := "admin-1"

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Limiter:    limiter,
		Projects:   creator,
		UserID:     userID,
		UserJWT:    IssueToken(t, userID, "member"),
		AdminID:    adminID,
		AdminJWT:   IssueToken(t, adminID, "admin"),
	}
}

// IssueToken signs a JWT the way the surrounding platform would.
func IssueToken(t *testing.T, userID, role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// SubmitTestIdea creates an idea through the API and returns it.
func SubmitTestIdea(t *testing.T, testCtx *TestContext, title string) *models.Idea {
	w := PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/ideas",
		models.SubmitIdeaRequest{
			Title:       title,
			Description: "Test description for " + title,
		},
		AuthHeaders(testCtx.UserJWT),
	)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.IdeaResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.NotNil(t, resp.Idea)

	return resp.Idea
}
