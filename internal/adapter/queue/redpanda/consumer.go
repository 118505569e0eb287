package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/smart-ats/internal/adapter/observability"
	"github.com/fairyhunter13/smart-ats/internal/analysis"
	"github.com/fairyhunter13/smart-ats/internal/domain"
)

// Consumer polls analysis tasks from Kafka and runs them through the
// analysis pipeline with bounded concurrency.
type Consumer struct {
	client   *kgo.Client
	repo     domain.AnalysisRepository
	cache    domain.ResultCache
	pipeline analysis.Pipeline

	topic string
	// Semaphore bounding the number of in-flight analyses.
	workers chan struct{}
}

// NewConsumer constructs a consumer-group member for the analyze topic.
func NewConsumer(brokers []string, groupID string, maxConcurrency int, repo domain.AnalysisRepository, cache domain.ResultCache, pipeline analysis.Pipeline) (*Consumer, error) {
	return NewConsumerWithTopic(brokers, groupID, maxConcurrency, TopicAnalyze, repo, cache, pipeline)
}

// NewConsumerWithTopic constructs a Consumer on a custom topic; tests use
// unique topics for isolation.
func NewConsumerWithTopic(brokers []string, groupID string, maxConcurrency int, topic string, repo domain.AnalysisRepository, cache domain.ResultCache, pipeline analysis.Pipeline) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	slog.Info("creating redpanda consumer",
		slog.Any("brokers", brokers),
		slog.String("group_id", groupID),
		slog.String("topic", topic),
		slog.Int("max_concurrency", maxConcurrency))

	tempClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("temp client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), tempClient, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}
	tempClient.Close()

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(
			kotel.TracerProvider(otel.GetTracerProvider()),
		)),
	)

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.WithHooks(kotelService.Hooks()...),

		kgo.DialTimeout(10 * time.Second),
		kgo.SessionTimeout(30 * time.Second),
		kgo.HeartbeatInterval(3 * time.Second),
		kgo.FetchMaxWait(5 * time.Second),

		// Offsets are marked only after a record is fully processed, so a
		// crash mid-analysis redelivers the task.
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	return &Consumer{
		client:   client,
		repo:     repo,
		cache:    cache,
		pipeline: pipeline,
		topic:    topic,
		workers:  make(chan struct{}, maxConcurrency),
	}, nil
}

// Run polls and processes tasks until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("consumer started", slog.String("topic", c.topic))
	var wg sync.WaitGroup
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})

		fetches.EachRecord(func(rec *kgo.Record) {
			select {
			case c.workers <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func(rec *kgo.Record) {
				defer wg.Done()
				defer func() { <-c.workers }()
				c.processRecord(ctx, rec)
				c.client.MarkCommitRecords(rec)
			}(rec)
		})
	}
	wg.Wait()
	slog.Info("consumer stopped", slog.String("topic", c.topic))
	return ctx.Err()
}

// processRecord runs one analysis task end to end: pipeline, finalize, and
// cache fill. The pipeline converts panics into failed results, so every
// task finalizes exactly once.
func (c *Consumer) processRecord(ctx context.Context, rec *kgo.Record) {
	var payload domain.AnalyzeTaskPayload
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		slog.Error("dropping malformed task", slog.Any("error", err))
		return
	}

	observability.StartProcessingAnalysis()
	slog.Info("processing analysis", slog.String("analysis_id", payload.AnalysisID))

	res := c.pipeline.Run(ctx, payload.AnalysisID, payload.ResumeText, payload.JobDescription)

	if err := c.repo.Finalize(ctx, res); err != nil {
		slog.Error("failed to finalize analysis",
			slog.String("analysis_id", payload.AnalysisID),
			slog.Any("error", err))
		observability.FailAnalysis()
		return
	}

	if res.Status == domain.AnalysisCompleted {
		observability.CompleteAnalysis()
		observability.ObserveScores(res.PercentageScore, res.JDMatch)
		if payload.CacheKey != "" && c.cache != nil {
			if err := c.cache.Set(ctx, payload.CacheKey, res); err != nil {
				slog.Warn("failed to cache analysis",
					slog.String("analysis_id", payload.AnalysisID),
					slog.Any("error", err))
			}
		}
	} else {
		observability.FailAnalysis()
	}

	slog.Info("analysis finalized",
		slog.String("analysis_id", payload.AnalysisID),
		slog.String("status", string(res.Status)),
		slog.Float64("score", res.PercentageScore))
}

// Close closes the consumer client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
