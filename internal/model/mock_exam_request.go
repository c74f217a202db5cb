package model

import "encoding/json"

// StartMockExamRequest is the payload for POST /api/v1/mock-exams.
type StartMockExamRequest struct {
	PaperCode  string     `json:"paper_code" binding:"required,max=16"`
	LengthTier LengthTier `json:"length_tier" binding:"required,length_tier"`
}

// SubmitAnswerRequest carries the raw answer; its shape depends on the
// question type. JSON null clears the answer.
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

// NavigateRequest moves the cursor to Index.
type NavigateRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// EnterReviewRequest opens the review screen.
type EnterReviewRequest struct {
	IncorrectOnly bool `json:"incorrect_only"`
}

// KeyRequest forwards a keyboard press.
type KeyRequest struct {
	Key string `json:"key" binding:"required,oneof=ArrowLeft ArrowRight Escape"`
}

// HistoryQuery is bound from GET /api/v1/mock-exams/history.
type HistoryQuery struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
