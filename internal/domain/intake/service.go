// Package intake stores the project questionnaire a visitor fills in before
// checkout. The answers become the default customer info of an order.
package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
)

// Answers is the free-form intake form as posted by the site
type Answers map[string]interface{}

// Service handles intake answers per session
type Service struct {
	kv     kvstore.KeyValueStore
	logger logrus.FieldLogger
}

// NewService creates a new intake service
func NewService(kv kvstore.KeyValueStore, logger logrus.FieldLogger) *Service {
	return &Service{kv: kv, logger: logger}
}

// Get returns the stored answers. Missing or unreadable answers are empty.
func (s *Service) Get(ctx context.Context, sessionID string) (Answers, error) {
	answers := Answers{}
	err := kvstore.GetJSON(ctx, s.kv, key(sessionID), &answers)
	switch {
	case err == nil:
		if answers == nil {
			answers = Answers{}
		}
		return answers, nil
	case errors.Is(err, kvstore.ErrNotFound):
		return Answers{}, nil
	case errors.Is(err, kvstore.ErrCorrupt):
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("discarding unreadable intake answers")
		return Answers{}, nil
	default:
		return nil, fmt.Errorf("failed to load intake answers: %w", err)
	}
}

// Save replaces the stored answers
func (s *Service) Save(ctx context.Context, sessionID string, answers Answers) error {
	if sessionID == "" {
		return fmt.Errorf("session ID required for intake")
	}
	if answers == nil {
		answers = Answers{}
	}
	if err := kvstore.SetJSON(ctx, s.kv, key(sessionID), answers); err != nil {
		return fmt.Errorf("failed to save intake answers: %w", err)
	}
	return nil
}

func key(sessionID string) string {
	return "intake:" + sessionID
}
