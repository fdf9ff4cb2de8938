// Package agent implements the autonomous loop: weighted task selection,
// per-action eligibility, prompt construction, and dispatch through the
// connection layer.
package agent

import (
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/finch/internal/bus"
	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
)

// Defaults mirroring the social connection's config when fields are omitted.
const (
	defaultTweetInterval     = 900 * time.Second
	defaultOwnRepliesCount   = 2
	defaultTimelineReadCount = 10
)

// Identity is how the agent recognizes its own posts. ID equality is
// preferred; username is the fallback when the ID isn't configured.
type Identity struct {
	UserID   string
	Username string
}

// Agent binds a personality config to the connection layer and carries the
// transient loop state. One agent per process; the loop is sequential.
type Agent struct {
	cfg     *config.Agent
	manager *connections.Manager
	events  *bus.Bus
	state   *State

	identity          Identity
	tweetInterval     time.Duration
	ownRepliesCount   int
	timelineReadCount int

	promptOnce   sync.Once
	systemPrompt string
}

// New builds an agent from a validated config. The events bus may be nil.
func New(cfg *config.Agent, manager *connections.Manager, events *bus.Bus) *Agent {
	a := &Agent{
		cfg:               cfg,
		manager:           manager,
		events:            events,
		state:             NewState(),
		tweetInterval:     defaultTweetInterval,
		ownRepliesCount:   defaultOwnRepliesCount,
		timelineReadCount: defaultTimelineReadCount,
	}

	if tw := cfg.Connection("twitter"); tw != nil {
		a.identity = Identity{UserID: tw.UserID, Username: tw.Username}
		if tw.TweetInterval > 0 {
			a.tweetInterval = time.Duration(tw.TweetInterval) * time.Second
		}
		if tw.OwnRepliesCount > 0 {
			a.ownRepliesCount = tw.OwnRepliesCount
		}
		if tw.TimelineReadCount > 0 {
			a.timelineReadCount = tw.TimelineReadCount
		}
	}
	return a
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.cfg.Name }

// State exposes the loop state. Only the loop mutates it.
func (a *Agent) State() *State { return a.state }

// Manager exposes the connection layer.
func (a *Agent) Manager() *connections.Manager { return a.manager }

// SystemPrompt builds the personality system prompt from bio, traits and
// examples. Built once and memoized; the config is immutable after load.
func (a *Agent) SystemPrompt() string {
	a.promptOnce.Do(func() {
		var parts []string
		parts = append(parts, a.cfg.Bio...)

		if len(a.cfg.Traits) > 0 {
			parts = append(parts, "\nYour key traits are:")
			for _, trait := range a.cfg.Traits {
				parts = append(parts, "- "+trait)
			}
		}
		if len(a.cfg.Examples) > 0 {
			parts = append(parts, "\nHere are some examples of your style (avoid repeating any of these):")
			for _, example := range a.cfg.Examples {
				parts = append(parts, "- "+example)
			}
		}
		a.systemPrompt = strings.Join(parts, "\n")
	})
	return a.systemPrompt
}

// IsSelf reports whether the post was authored by this agent.
// Prefers author-ID equality; falls back to case-insensitive username
// comparison when no user ID is configured.
func (a *Agent) IsSelf(p connections.Post) bool {
	if a.identity.UserID != "" && p.AuthorID != "" {
		return p.AuthorID == a.identity.UserID
	}
	if a.identity.Username != "" && p.AuthorUsername != "" {
		return strings.EqualFold(p.AuthorUsername, a.identity.Username)
	}
	return false
}
