// Package pipeline implements the comment -> AI reply -> speech -> broadcast
// chain. Analyze requests are dispatched into a bounded worker pool so bursty
// comment volume cannot spawn unbounded goroutines; results are published on
// the user's channel, never returned to the caller.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/ai"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/metrics"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/platform/retry"
)

// AssistantAuthor labels every pipeline-generated reply event.
const AssistantAuthor = "AI助手"

const queueDepth = 64

type job struct {
	userID      uuid.UUID
	commentText string
}

// Pipeline consumes analyze jobs with a fixed pool of workers. Multiple jobs
// for the same user may run concurrently; publish order is completion order.
type Pipeline struct {
	jobs      chan job
	settings  domain.SettingsProvider
	textgen   domain.TextGenerator
	speech    domain.SpeechSynthesizer
	publisher domain.Publisher
	clock     clockwork.Clock
	policy    retry.Policy

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// New starts the worker pool. Stop must be called to drain it on shutdown.
func New(settings domain.SettingsProvider, textgen domain.TextGenerator, speech domain.SpeechSynthesizer, publisher domain.Publisher, clock clockwork.Clock, workers int) *Pipeline {
	p := &Pipeline{
		jobs:      make(chan job, queueDepth),
		settings:  settings,
		textgen:   textgen,
		speech:    speech,
		publisher: publisher,
		clock:     clock,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
		},
	}
	p.policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		metrics.TextGenRetries.Inc()
		slog.Debug("text generation retry", "attempt", attempt, "backoff", backoff, "error", err)
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Analyze enqueues a comment for asynchronous analysis. It never blocks;
// when the queue is full the job is rejected with ErrPipelineBusy.
func (p *Pipeline) Analyze(userID uuid.UUID, commentText string) error {
	if p.stopped.Load() {
		return domain.ErrPipelineBusy
	}
	select {
	case p.jobs <- job{userID: userID, commentText: commentText}:
		return nil
	default:
		metrics.AnalyzeJobs.WithLabelValues("rejected").Inc()
		return domain.ErrPipelineBusy
	}
}

// Stop closes the queue and waits for in-flight jobs to finish. Jobs already
// dispatched run to completion even if their session was stopped meanwhile.
func (p *Pipeline) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.jobs)
	}
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pipeline) process(j job) {
	start := p.clock.Now()
	ctx := context.Background()
	channelID := live.DeriveChannelID(j.userID)

	cfg, err := p.settings.Get(ctx, j.userID)
	if err != nil {
		metrics.AnalyzeJobs.WithLabelValues("config_missing").Inc()
		slog.Warn("analyze aborted, no settings for user", "user_id", j.userID, "error", err)
		p.publish(channelID, domain.SystemEvent("尚未配置助手设置，无法分析评论", p.clock.Now()))
		return
	}

	reply, degraded := p.generateReply(ctx, j.commentText, cfg)

	result := domain.ReplyResult{ReplyText: reply, Timestamp: p.clock.Now()}
	audioURL, err := p.speech.Synthesize(ctx, reply, cfg.VoiceStyle, cfg.SpeechSpeed, cfg.Volume)
	if err != nil {
		result.FallbackText = reply
		metrics.AnalyzeJobs.WithLabelValues("text_fallback").Inc()
		slog.Warn("speech synthesis failed, falling back to text", "user_id", j.userID, "error", err)
	} else {
		result.AudioURL = audioURL
		if degraded {
			metrics.AnalyzeJobs.WithLabelValues("canned_reply").Inc()
		} else {
			metrics.AnalyzeJobs.WithLabelValues("ok").Inc()
		}
	}

	p.publish(channelID, domain.ReplyEvent(AssistantAuthor, result))
	metrics.AnalyzeDuration.Observe(p.clock.Since(start).Seconds())
}

// generateReply calls the text-generation collaborator with bounded retries.
// Exhaustion degrades to a canned apology embedding the original comment;
// the viewer always gets some reply.
func (p *Pipeline) generateReply(ctx context.Context, commentText string, cfg domain.Settings) (reply string, degraded bool) {
	reply, err := retry.Do(ctx, p.policy, ai.ClassifyError, func(ctx context.Context) (string, error) {
		return p.textgen.Complete(ctx, commentText, cfg)
	})
	if err != nil {
		slog.Warn("text generation exhausted retries, using canned reply", "error", err)
		return fmt.Sprintf("非常抱歉，我暂时无法回答“%s”这个问题，请稍后再试或咨询主播。", commentText), true
	}
	return reply, false
}

func (p *Pipeline) publish(channelID uuid.UUID, event domain.Event) {
	if err := p.publisher.Publish(context.Background(), channelID, event); err != nil {
		slog.Error("failed to publish pipeline event", "channel_id", channelID, "kind", event.Kind, "error", err)
	}
}
