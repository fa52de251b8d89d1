package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/logger"
)

const (
	// defaultConsumerGroup is the worker consumer group name.
	defaultConsumerGroup = "workers"

	// defaultBlockTimeout bounds one blocking stream read.
	defaultBlockTimeout = 5 * time.Second

	// defaultBatchSize is how many messages one read may return.
	defaultBatchSize = 10

	// defaultClaimMinIdle is how long a pending entry must sit idle before
	// another consumer may reclaim it.
	defaultClaimMinIdle = 5 * time.Minute

	// maxDeliveries is the delivery budget before a job is dead-lettered.
	maxDeliveries = 3

	// maxPendingCheck caps how many pending entries one reclaim pass scans.
	maxPendingCheck = 100
)

// ConsumedJob is one job read from the broker.
type ConsumedJob struct {
	MessageID  string
	Job        *domain.Job
	EnqueuedAt time.Time
	Deliveries int64
}

// ConsumerConfig tunes a Consumer. Zero values adopt the defaults.
type ConsumerConfig struct {
	ConsumerGroup string
	ConsumerID    string
	BlockTimeout  time.Duration
	BatchSize     int64
	ClaimMinIdle  time.Duration
}

// Consumer reads jobs through a consumer group. Unacknowledged jobs return
// via pending-entry reclaim; jobs that exhaust their delivery budget move
// to the dead-letter stream.
type Consumer struct {
	client       *StreamsClient
	group        string
	consumerID   string
	blockTimeout time.Duration
	batchSize    int64
	claimMinIdle time.Duration
	log          logger.Logger
}

// NewConsumer creates a consumer. ConsumerID must be unique per process.
func NewConsumer(client *StreamsClient, cfg ConsumerConfig, log logger.Logger) (*Consumer, error) {
	if cfg.ConsumerID == "" {
		return nil, errors.New("consumer ID is required")
	}

	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = defaultConsumerGroup
	}

	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = defaultBlockTimeout
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = defaultClaimMinIdle
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Consumer{
		client:       client,
		group:        cfg.ConsumerGroup,
		consumerID:   cfg.ConsumerID,
		blockTimeout: cfg.BlockTimeout,
		batchSize:    cfg.BatchSize,
		claimMinIdle: cfg.ClaimMinIdle,
		log:          log,
	}, nil
}

// Initialize creates the consumer group on the job stream.
func (c *Consumer) Initialize(ctx context.Context) error {
	return c.client.CreateConsumerGroup(ctx, c.client.JobStream(), c.group)
}

// Read returns the next batch of jobs. Reclaimable pending entries take
// precedence over new messages.
func (c *Consumer) Read(ctx context.Context) ([]*ConsumedJob, error) {
	if reclaimed := c.reclaimPending(ctx); len(reclaimed) > 0 {
		return reclaimed, nil
	}

	streams, err := c.client.XReadGroup(
		ctx, c.group, c.consumerID, c.client.JobStream(), c.batchSize, c.blockTimeout,
	)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read job stream: %w", err)
	}

	var jobs []*ConsumedJob
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			job, err := c.parseMessage(msg, 1)
			if err != nil {
				c.log.Warn("malformed job message",
					logger.String("messageId", msg.ID),
					logger.Error(err),
				)
				continue
			}
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

// Acknowledge marks a job as successfully processed.
func (c *Consumer) Acknowledge(ctx context.Context, job *ConsumedJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return c.client.XAck(ctx, c.client.JobStream(), c.group, job.MessageID)
}

// PendingCount returns the number of delivered-but-unacked jobs.
func (c *Consumer) PendingCount(ctx context.Context) (int64, error) {
	entries, err := c.client.XPendingExt(ctx, c.client.JobStream(), c.group, maxPendingCheck)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return int64(len(entries)), nil
}

// reclaimPending claims pending entries past the idle threshold. Entries
// over the delivery budget are moved to the dead-letter stream instead.
func (c *Consumer) reclaimPending(ctx context.Context) []*ConsumedJob {
	stream := c.client.JobStream()

	pending, err := c.client.XPendingExt(ctx, stream, c.group, maxPendingCheck)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("pending scan failed", logger.Error(err))
		}
		return nil
	}

	var toClaim []string
	deliveries := make(map[string]int64, len(pending))

	for _, entry := range pending {
		if entry.Idle < c.claimMinIdle {
			continue
		}

		if entry.RetryCount >= maxDeliveries {
			c.deadLetter(ctx, entry.ID, entry.RetryCount)
			continue
		}

		toClaim = append(toClaim, entry.ID)
		deliveries[entry.ID] = entry.RetryCount + 1
	}

	if len(toClaim) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, stream, c.group, c.consumerID, c.claimMinIdle, toClaim...)
	if err != nil {
		c.log.Warn("claim failed", logger.Error(err))
		return nil
	}

	var jobs []*ConsumedJob
	for _, msg := range claimed {
		job, err := c.parseMessage(msg, deliveries[msg.ID])
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs
}

// deadLetter copies a poison entry to the dead-letter stream and acks it
// off the job stream.
func (c *Consumer) deadLetter(ctx context.Context, messageID string, retries int64) {
	claimed, err := c.client.XClaim(
		ctx, c.client.JobStream(), c.group, c.consumerID, c.claimMinIdle, messageID,
	)
	if err != nil || len(claimed) == 0 {
		return
	}

	msg := claimed[0]
	values := make(map[string]any, len(msg.Values)+1)
	for k, v := range msg.Values {
		values[k] = v
	}
	values[reasonField] = fmt.Sprintf("delivery budget exhausted after %d attempts", retries)

	if _, err := c.client.XAdd(ctx, c.client.DeadLetterStream(), values); err != nil {
		c.log.Error("dead-letter append failed",
			logger.String("messageId", messageID),
			logger.Error(err),
		)
		return
	}

	if err := c.client.XAck(ctx, c.client.JobStream(), c.group, messageID); err != nil {
		c.log.Warn("dead-letter ack failed", logger.Error(err))
	}

	c.log.Warn("job dead-lettered",
		logger.String("messageId", messageID),
		logger.Int64("deliveries", retries),
	)
}

// parseMessage decodes one stream message into a ConsumedJob.
func (c *Consumer) parseMessage(msg redis.XMessage, deliveries int64) (*ConsumedJob, error) {
	jobData, ok := msg.Values[jobDataField].(string)
	if !ok {
		return nil, errors.New("missing job data")
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}

	consumed := &ConsumedJob{
		MessageID:  msg.ID,
		Job:        &job,
		Deliveries: deliveries,
	}

	if raw, ok := msg.Values[enqueuedAtField].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			consumed.EnqueuedAt = t
		}
	}

	return consumed, nil
}
