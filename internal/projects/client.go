// Package projects is the HTTP client for the external project-creation
// service. The engine hands an adopted idea's content over and gets back the
// identifier of the derived project; every error is surfaced verbatim to the
// admin caller of the transform transition.
package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ideahub/ideahub-server/internal/models"
)

// Client calls the project-creation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
	Language    string `json:"language,omitempty"`
	SourceIdea  string `json:"sourceIdeaId"`
}

type createProjectResponse struct {
	ProjectID string `json:"projectId"`
}

// CreateProject derives a project from the idea and returns its identifier.
func (c *Client) CreateProject(ctx context.Context, idea *models.Idea) (string, error) {
	body, err := json.Marshal(createProjectRequest{
		Title:       idea.Title,
		Description: idea.Description,
		Content:     idea.Content,
		Language:    idea.Language,
		SourceIdea:  idea.ID,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding project request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/projects", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error building project request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("project service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("project service returned status %d", resp.StatusCode)
	}

	var created createProjectResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("error decoding project response: %w", err)
	}
	if created.ProjectID == "" {
		return "", fmt.Errorf("project service returned an empty project id")
	}

	return created.ProjectID, nil
}
