package models

// Request models
type SubmitIdeaRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Content     string `json:"content"`
	Language    string `json:"language"`
}

type CastVoteRequest struct {
	Weight int `json:"weight" binding:"required"`
}

type TransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=adopt reject transform"`
	Reason string `json:"reason"`
}

// Response models
type IdeaResponse struct {
	Status string `json:"status"`
	Idea   *Idea  `json:"idea"`
}

type IdeaListResponse struct {
	Status string `json:"status"`
	Ideas  []Idea `json:"ideas"`
}

type CastVoteResponse struct {
	Status              string `json:"status"`
	WeightApplied       int    `json:"weightApplied"`
	RemainingDailyQuota int    `json:"remainingDailyQuota"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// RemainingQuota is set only for QUOTA_EXCEEDED so the caller can render
	// "remaining votes today: N".
	RemainingQuota *int `json:"remainingQuota,omitempty"`
}
