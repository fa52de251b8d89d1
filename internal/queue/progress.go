package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// progressTTL is how long per-job progress stays readable.
const progressTTL = 24 * time.Hour

// resultTTL is how long stored job results stay readable.
const resultTTL = 7 * 24 * time.Hour

// resultKey is where a finished job's result envelope is stored.
func resultKey(jobID string) string {
	return "result:" + jobID
}

// ProgressStore publishes per-job progress and final results to Redis so
// enqueuers can poll them.
type ProgressStore struct {
	client *StreamsClient
}

// NewProgressStore creates a ProgressStore on the broker's client.
func NewProgressStore(client *StreamsClient) *ProgressStore {
	return &ProgressStore{client: client}
}

// SetProgress overwrites the progress snapshot for a job.
func (s *ProgressStore) SetProgress(ctx context.Context, jobID string, p domain.JobProgress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("serialize progress: %w", err)
	}

	key := s.client.progressKey(jobID)
	if err := s.client.client.Set(ctx, key, raw, progressTTL).Err(); err != nil {
		return fmt.Errorf("store progress for %s: %w", jobID, err)
	}

	return nil
}

// GetProgress reads the progress snapshot for a job. ok is false when no
// snapshot exists.
func (s *ProgressStore) GetProgress(ctx context.Context, jobID string) (domain.JobProgress, bool, error) {
	raw, err := s.client.client.Get(ctx, s.client.progressKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.JobProgress{}, false, nil
	}
	if err != nil {
		return domain.JobProgress{}, false, fmt.Errorf("read progress for %s: %w", jobID, err)
	}

	var p domain.JobProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.JobProgress{}, false, fmt.Errorf("decode progress for %s: %w", jobID, err)
	}

	return p, true, nil
}

// SaveResult stores a finished job's result envelope.
func (s *ProgressStore) SaveResult(ctx context.Context, jobID string, result *domain.JobResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serialize result: %w", err)
	}

	if err := s.client.client.Set(ctx, resultKey(jobID), raw, resultTTL).Err(); err != nil {
		return fmt.Errorf("store result for %s: %w", jobID, err)
	}

	return nil
}

// GetResult reads a stored job result. ok is false when none exists.
func (s *ProgressStore) GetResult(ctx context.Context, jobID string) (*domain.JobResult, bool, error) {
	raw, err := s.client.client.Get(ctx, resultKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read result for %s: %w", jobID, err)
	}

	var result domain.JobResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode result for %s: %w", jobID, err)
	}

	return &result, true, nil
}
