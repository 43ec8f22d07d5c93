package services

import (
	"context"
	"fmt"
	"time"

	stream "github.com/GetStream/stream-chat-go/v6"
)

// ChatProvider is the collaborator interface to the external chat/video
// provider: a push-only identity mirror plus user token minting. All
// real-time transport happens provider-side.
type ChatProvider interface {
	UpsertIdentity(ctx context.Context, id, name, image string) error
	CreateToken(id string) (string, error)
}

// StreamService implements ChatProvider against Stream Chat. It is
// constructed once at startup and never mutated afterwards.
type StreamService struct {
	client *stream.Client
}

func NewStreamService(apiKey, apiSecret string) (*StreamService, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET must be set")
	}
	client, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream client: %w", err)
	}
	return &StreamService{client: client}, nil
}

// UpsertIdentity pushes the user's identity to Stream so they can be
// addressed in chat and video calls.
func (s *StreamService) UpsertIdentity(ctx context.Context, id, name, image string) error {
	_, err := s.client.UpsertUser(ctx, &stream.User{
		ID:    id,
		Name:  name,
		Image: image,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert stream user %s: %w", id, err)
	}
	return nil
}

// CreateToken mints a Stream user token the client uses to connect.
func (s *StreamService) CreateToken(id string) (string, error) {
	token, err := s.client.CreateToken(id, time.Time{})
	if err != nil {
		return "", fmt.Errorf("failed to create stream token for %s: %w", id, err)
	}
	return token, nil
}
