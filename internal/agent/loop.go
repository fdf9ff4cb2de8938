package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/finch/internal/bus"
	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
)

// Cooldown policy: successful iterations sleep the configured loop delay,
// failures sleep a longer fixed delay so repeated errors don't hammer the
// APIs, and skipped iterations (ineligible action, empty timeline) take a
// short wait instead of busy-looping.
const (
	defaultFailureDelay = 60 * time.Second
	defaultSkipDelay    = 5 * time.Second

	// defaultCountdown is how many seconds Run announces before the first
	// iteration, giving the operator a window to abort.
	defaultCountdown = 5
)

// postPrompt is the user prompt for a standalone post.
const postPrompt = "Write a short post in your voice. Keep it under 100 characters, " +
	"punchy and off the cuff. No hashtags, no emojis, no quotes from famous people."

// imagePromptPrompt asks the model to write a prompt for the image provider.
const imagePromptPrompt = "Write a prompt for an image generator to create a surreal, " +
	"abstract technological visualization. Make it strange but engaging. " +
	"No brand names, no real people."

// iterationResult is the explicit outcome of one loop pass, consumed by the
// cooldown logic. Errors never escape an iteration.
type iterationResult struct {
	outcome bus.Outcome
	detail  string
	postID  string
	err     error
}

func success(detail, postID string) iterationResult {
	return iterationResult{outcome: bus.OutcomeSuccess, detail: detail, postID: postID}
}

func skipped(reason string) iterationResult {
	return iterationResult{outcome: bus.OutcomeSkipped, detail: reason}
}

func failed(detail string, err error) iterationResult {
	return iterationResult{outcome: bus.OutcomeFailed, detail: detail, err: err}
}

// Loop runs the agent's action cycle until the context is cancelled.
type Loop struct {
	agent    *Agent
	selector *Selector
	runID    string

	loopDelay    time.Duration
	failureDelay time.Duration
	skipDelay    time.Duration
	countdown    int
}

// NewLoop builds the loop controller from the agent's task configuration.
func NewLoop(a *Agent) (*Loop, error) {
	selector, err := NewSelector(a.cfg.Tasks, nil)
	if err != nil {
		return nil, err
	}
	return &Loop{
		agent:        a,
		selector:     selector,
		runID:        uuid.NewString(),
		loopDelay:    time.Duration(a.cfg.LoopDelay) * time.Second,
		failureDelay: defaultFailureDelay,
		skipDelay:    defaultSkipDelay,
		countdown:    defaultCountdown,
	}, nil
}

// Run executes iterations until ctx is cancelled. A single iteration's
// failure never terminates the loop; it only lengthens the cooldown.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("starting agent loop",
		"agent", l.agent.Name(),
		"run_id", l.runID,
		"loop_delay", l.loopDelay,
	)

	for i := l.countdown; i > 0; i-- {
		slog.Info("first iteration in", "seconds", i)
		if !sleepCtx(ctx, time.Second) {
			slog.Info("agent loop stopped", "agent", l.agent.Name(), "run_id", l.runID)
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent loop stopped", "agent", l.agent.Name(), "run_id", l.runID)
			return nil
		default:
		}

		task := l.selector.Next()
		res := l.execute(ctx, task)

		switch res.outcome {
		case bus.OutcomeSuccess:
			slog.Info("iteration complete", "task", task, "detail", res.detail)
		case bus.OutcomeSkipped:
			slog.Info("iteration skipped", "task", task, "reason", res.detail)
		case bus.OutcomeFailed:
			slog.Error("iteration failed", "task", task, "detail", res.detail, "error", res.err)
		}

		l.agent.events.Publish(bus.Event{
			RunID:   l.runID,
			Agent:   l.agent.Name(),
			Task:    task,
			Outcome: res.outcome,
			Detail:  res.detail,
			PostID:  res.postID,
			Time:    time.Now(),
		})

		var delay time.Duration
		switch res.outcome {
		case bus.OutcomeSuccess:
			delay = l.loopDelay
		case bus.OutcomeSkipped:
			delay = l.skipDelay
		default:
			delay = l.failureDelay
		}

		if !sleepCtx(ctx, delay) {
			slog.Info("agent loop stopped", "agent", l.agent.Name(), "run_id", l.runID)
			return nil
		}
	}
}

// execute runs one iteration of the selected task.
func (l *Loop) execute(ctx context.Context, task string) iterationResult {
	switch task {
	case config.TaskPost:
		return l.handlePost(ctx)
	case config.TaskReply:
		return l.handleReply(ctx)
	case config.TaskLike:
		return l.handleLike(ctx)
	case config.TaskPostWithImage:
		return l.handlePostWithImage(ctx)
	default:
		return failed("unknown task", fmt.Errorf("task %q not handled", task))
	}
}

// postEligible applies the minimum-interval gate shared by post and
// post-with-image.
func (l *Loop) postEligible() bool {
	last := l.agent.state.LastPostTime()
	return last.IsZero() || time.Since(last) >= l.agent.tweetInterval
}

func (l *Loop) handlePost(ctx context.Context) iterationResult {
	if !l.postEligible() {
		return skipped("post interval not elapsed")
	}

	mp, ok := l.agent.manager.ModelProvider()
	if !ok {
		return failed("no model provider", connections.ErrNotConnected)
	}
	sp, ok := l.agent.manager.SocialProvider()
	if !ok {
		return failed("no social provider", connections.ErrNotConnected)
	}

	text, err := mp.GenerateText(ctx, postPrompt, l.agent.SystemPrompt())
	if err != nil {
		return failed("text generation failed", err)
	}
	if text == "" {
		return failed("model returned empty post", nil)
	}

	post, err := sp.Post(ctx, text)
	if err != nil {
		return failed("post failed", err)
	}

	l.agent.state.MarkPosted(time.Now())
	return success(text, post.ID)
}

func (l *Loop) handleReply(ctx context.Context) iterationResult {
	sp, ok := l.agent.manager.SocialProvider()
	if !ok {
		return failed("no social provider", connections.ErrNotConnected)
	}

	if res, ok := l.ensureTimeline(ctx, sp); !ok {
		return res
	}

	post, _ := l.agent.state.Peek()

	// Replying to ourselves would start an echo chamber. Instead pull the
	// replies under our own post into the buffer and end as a no-op.
	if l.agent.IsSelf(post) {
		replies, err := sp.Replies(ctx, post.ID, l.agent.ownRepliesCount)
		if err != nil {
			return failed("fetching own-post replies failed", err)
		}
		l.agent.state.CommitPop()
		if len(replies) > l.agent.ownRepliesCount {
			replies = replies[:l.agent.ownRepliesCount]
		}
		l.agent.state.Enqueue(replies...)
		return success(fmt.Sprintf("own post; queued %d replies", len(replies)), post.ID)
	}

	mp, ok := l.agent.manager.ModelProvider()
	if !ok {
		return failed("no model provider", connections.ErrNotConnected)
	}

	tone, intensity := Classify(post.Text)
	userPrompt, systemSuffix := BuildReplyPrompt(post.Text, tone, intensity)

	text, err := mp.GenerateText(ctx, userPrompt, l.agent.SystemPrompt()+systemSuffix)
	if err != nil {
		return failed("reply generation failed", err)
	}
	if text == "" {
		return failed("model returned empty reply", nil)
	}

	reply, err := sp.Reply(ctx, post.ID, text)
	if err != nil {
		return failed("reply failed", err)
	}

	l.agent.state.CommitPop()
	return success(text, reply.ID)
}

func (l *Loop) handleLike(ctx context.Context) iterationResult {
	sp, ok := l.agent.manager.SocialProvider()
	if !ok {
		return failed("no social provider", connections.ErrNotConnected)
	}

	if res, ok := l.ensureTimeline(ctx, sp); !ok {
		return res
	}

	post, _ := l.agent.state.Peek()
	if _, err := sp.Like(ctx, post.ID); err != nil {
		return failed("like failed", err)
	}

	l.agent.state.CommitPop()
	return success("liked post", post.ID)
}

func (l *Loop) handlePostWithImage(ctx context.Context) iterationResult {
	if !l.postEligible() {
		return skipped("post interval not elapsed")
	}

	mp, ok := l.agent.manager.ModelProvider()
	if !ok {
		return failed("no model provider", connections.ErrNotConnected)
	}
	ip, ok := l.agent.manager.ImageProvider()
	if !ok {
		return failed("no image provider", connections.ErrNotConnected)
	}
	sp, ok := l.agent.manager.SocialProvider()
	if !ok {
		return failed("no social provider", connections.ErrNotConnected)
	}

	// Four-step chain: image prompt, image, caption, post. An empty
	// intermediate result aborts the rest of the chain; the iteration just
	// counts as unsuccessful.
	imagePrompt, err := mp.GenerateText(ctx, imagePromptPrompt, "")
	if err != nil {
		return failed("image prompt generation failed", err)
	}
	if imagePrompt == "" {
		return failed("model returned empty image prompt", nil)
	}

	imageURL, err := ip.GenerateImage(ctx, imagePrompt)
	if err != nil {
		return failed("image generation failed", err)
	}
	if imageURL == "" {
		return failed("image provider returned empty URL", nil)
	}

	caption, err := mp.GenerateText(ctx,
		"Write a post to accompany this image. The image shows: "+imagePrompt,
		l.agent.SystemPrompt())
	if err != nil {
		return failed("caption generation failed", err)
	}
	if caption == "" {
		return failed("model returned empty caption", nil)
	}

	post, err := sp.PostWithMedia(ctx, caption, imageURL)
	if err != nil {
		return failed("image post failed", err)
	}

	l.agent.state.MarkPosted(time.Now())
	return success(caption, post.ID)
}

// ensureTimeline replenishes the buffered timeline when empty. Returns
// ok=false with the result to report when the caller should stop: either
// the fetch failed, or the timeline is genuinely empty (a no-op skip).
func (l *Loop) ensureTimeline(ctx context.Context, sp connections.SocialProvider) (iterationResult, bool) {
	if l.agent.state.TimelineLen() == 0 {
		slog.Info("reading timeline", "count", l.agent.timelineReadCount)
		posts, err := sp.ReadTimeline(ctx, l.agent.timelineReadCount)
		if err != nil {
			return failed("timeline read failed", err), false
		}
		l.agent.state.Enqueue(posts...)
	}
	if l.agent.state.TimelineLen() == 0 {
		return skipped("timeline empty"), false
	}
	return iterationResult{}, true
}

// sleepCtx sleeps for d unless ctx is cancelled first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
