package dto

import (
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/tutor"
)

// AskTutorRequest carries one tutoring question with optional
// conversation history and an optional image
type AskTutorRequest struct {
	Text     string          `json:"text" validate:"required"`
	History  []tutor.Message `json:"history,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
}

func (r *AskTutorRequest) Validate() error {
	if r.Text == "" {
		return ierr.NewError("text is required").
			WithHint("Please provide a question").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AskTutorResponse carries the tutor's answer
type AskTutorResponse struct {
	Answer string `json:"answer"`
}
