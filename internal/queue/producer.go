package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// Stream message field names.
const (
	jobDataField    = "job"
	enqueuedAtField = "enqueued_at"
	reasonField     = "reason"
)

// defaultMaxStreamLen bounds the job stream against unbounded growth.
const defaultMaxStreamLen = 10000

// Producer enqueues enrichment jobs.
type Producer struct {
	client       *StreamsClient
	maxStreamLen int64
}

// NewProducer creates a producer. maxStreamLen <= 0 uses the default.
func NewProducer(client *StreamsClient, maxStreamLen int64) *Producer {
	if maxStreamLen <= 0 {
		maxStreamLen = defaultMaxStreamLen
	}

	return &Producer{client: client, maxStreamLen: maxStreamLen}
}

// Enqueue adds a job to the stream and returns its message ID. A job
// without an ID is assigned one.
func (p *Producer) Enqueue(ctx context.Context, job *domain.Job) (string, error) {
	if job == nil {
		return "", errors.New("job cannot be nil")
	}

	if len(job.Sites) == 0 {
		return "", errors.New("job has no sites")
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("serialize job: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, p.client.JobStream(), map[string]any{
		jobDataField:    string(jobData),
		enqueuedAtField: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}

	return messageID, nil
}

// TrimStream trims the job stream to its maximum length.
func (p *Producer) TrimStream(ctx context.Context) error {
	return p.client.XTrimMaxLen(ctx, p.client.JobStream(), p.maxStreamLen)
}

// QueueDepth returns the current job stream length.
func (p *Producer) QueueDepth(ctx context.Context) (int64, error) {
	return p.client.XLen(ctx, p.client.JobStream())
}
