package testutil

import (
	"context"
	"sync"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/tutor"
)

// MockTutorClient implements tutor.Client with a canned reply
type MockTutorClient struct {
	mu sync.Mutex

	Reply string
	Fail  bool
	Calls int
}

// NewMockTutorClient creates a mock tutor client
func NewMockTutorClient() *MockTutorClient {
	return &MockTutorClient{Reply: "test answer"}
}

func (m *MockTutorClient) SendMessage(ctx context.Context, text string, history []tutor.Message, imageURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Fail {
		return "", ierr.NewError("tutor unavailable").
			WithHint("Failed to get a tutor response").
			Mark(ierr.ErrHTTPClient)
	}
	return m.Reply, nil
}
