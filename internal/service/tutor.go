package service

import (
	"context"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/tutor"
	"github.com/edumitra/entitlements/internal/types"
)

// TutorService is the gated front of the AI tutoring collaborator: every
// question passes the feature gate and is counted against the daily quota
// before the completion call goes out.
type TutorService interface {
	Ask(ctx context.Context, accountID string, text string, history []tutor.Message, imageURL string) (string, error)
}

type tutorService struct {
	ServiceParams
	access FeatureAccessService
}

// NewTutorService creates a new tutor service
func NewTutorService(params ServiceParams, access FeatureAccessService) TutorService {
	return &tutorService{
		ServiceParams: params,
		access:        access,
	}
}

func (s *tutorService) Ask(ctx context.Context, accountID string, text string, history []tutor.Message, imageURL string) (string, error) {
	if text == "" {
		return "", ierr.NewError("question text is required").
			WithHint("Please ask a question").
			Mark(ierr.ErrValidation)
	}

	gate := s.access.CanUseFeatureNow(ctx, accountID, types.FeatureAIQuestion)
	if !gate.Allowed {
		return "", ierr.NewError("daily question limit reached").
			WithHint("You have used all your free questions for today").
			WithReportableDetails(map[string]any{
				"feature": types.FeatureAIQuestion,
				"reason":  gate.Reason,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	// Usage is counted before the completion call so a crash mid-call
	// cannot hand out free questions.
	if gate.Reason != "subscription" {
		if err := s.access.RecordUsage(ctx, accountID, types.FeatureAIQuestion); err != nil {
			return "", err
		}
	}

	reply, err := s.Tutor.SendMessage(ctx, text, history, imageURL)
	if err != nil {
		return "", err
	}

	return reply, nil
}
