package logger

import (
	"context"
	"log/slog"
)

// ContextKey is the type of every value this package stores on a context,
// keeping context.WithValue lookups collision-free with other packages.
type ContextKey string

const (
	// QueryKey carries the raw (pre-compile) search query.
	QueryKey ContextKey = "alt.search.query"
	// PrefectureKey carries the prefecture shard a search or ingest was
	// scoped to.
	PrefectureKey ContextKey = "alt.search.prefecture"
	// UserKey carries the journal username a search is attributed to.
	UserKey ContextKey = "alt.search.user"
	// ShardKey carries the index directory name backing an operation.
	ShardKey ContextKey = "alt.index.shard"
	// ProcessingStageKey carries a coarse pipeline stage label (e.g.
	// "tokenize", "index", "export").
	ProcessingStageKey ContextKey = "alt.processing.stage"
	// AIPipelineKey carries the tokenizer backend name in effect.
	AIPipelineKey ContextKey = "alt.ai.pipeline"
)

// WithQuery attaches a query to ctx for later log attribution.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, QueryKey, query)
}

// WithPrefecture attaches a prefecture to ctx for later log attribution.
func WithPrefecture(ctx context.Context, prefecture string) context.Context {
	return context.WithValue(ctx, PrefectureKey, prefecture)
}

// WithUser attaches a journal username to ctx for later log attribution.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// WithShard attaches an index shard name to ctx for later log attribution.
func WithShard(ctx context.Context, shard string) context.Context {
	return context.WithValue(ctx, ShardKey, shard)
}

// WithProcessingStage attaches a pipeline stage label to ctx.
func WithProcessingStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ProcessingStageKey, stage)
}

// WithAIPipeline attaches the active tokenizer backend name to ctx.
func WithAIPipeline(ctx context.Context, pipeline string) context.Context {
	return context.WithValue(ctx, AIPipelineKey, pipeline)
}

// ContextLogger derives structured attributes from whichever of the above
// keys are present on a context, so call sites never have to thread the
// same identifiers through every log call by hand.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger binds a ContextLogger to the given base logger.
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger carrying every correlation attribute present
// on ctx; absent keys are omitted rather than logged empty.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	args := make([]any, 0, 12)

	if v, ok := ctx.Value(QueryKey).(string); ok {
		args = append(args, string(QueryKey), v)
	}
	if v, ok := ctx.Value(PrefectureKey).(string); ok {
		args = append(args, string(PrefectureKey), v)
	}
	if v, ok := ctx.Value(UserKey).(string); ok {
		args = append(args, string(UserKey), v)
	}
	if v, ok := ctx.Value(ShardKey).(string); ok {
		args = append(args, string(ShardKey), v)
	}
	if v, ok := ctx.Value(ProcessingStageKey).(string); ok {
		args = append(args, string(ProcessingStageKey), v)
	}
	if v, ok := ctx.Value(AIPipelineKey).(string); ok {
		args = append(args, string(AIPipelineKey), v)
	}

	return cl.logger.With(args...)
}

// LogDuration logs operation completion with its duration in milliseconds,
// carrying whatever correlation attributes ctx holds.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, durationMS int64) {
	cl.WithContext(ctx).Info("operation completed",
		"operation", operation,
		"duration_ms", durationMS,
	)
}

// LogError logs operation failure, carrying whatever correlation attributes
// ctx holds.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).Error("operation failed",
		"operation", operation,
		"error", err,
	)
}
