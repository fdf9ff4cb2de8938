// Package connections provides the uniform adapter layer between the agent
// loop and external services. Each connection exposes a fixed table of named
// actions with positional parameter specs; dispatch goes through the Manager,
// which validates the call before handing it to the connection.
package connections

import (
	"context"
	"sync"
	"time"
)

// Connection is the base contract every external-service adapter implements.
type Connection interface {
	// Name is the registry key ("twitter", "openai", "anthropic").
	Name() string

	// Initialize opens clients and verifies credentials. Safe to call once.
	Initialize(ctx context.Context) error

	// Shutdown releases clients. Idempotent.
	Shutdown(ctx context.Context) error

	// State exposes the live connection state (mutated by the retry wrapper).
	State() *State

	// Actions returns the capability table for this connection.
	Actions() map[string]ActionSpec

	// Perform executes a registered action with positionally matched params.
	// Required-parameter presence is validated by the Manager before this
	// is called; connections only coerce and forward.
	Perform(ctx context.Context, action string, params []any) (any, error)
}

// ModelProvider is the capability needed by the agent to generate text.
type ModelProvider interface {
	Connection

	// GenerateText runs one completion. systemPrompt may be empty.
	GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// ImageProvider generates an image and returns a URL to it.
type ImageProvider interface {
	Connection

	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// SocialProvider is the capability set the agent loop needs from a
// social network.
type SocialProvider interface {
	Connection

	ReadTimeline(ctx context.Context, count int) ([]Post, error)
	Post(ctx context.Context, text string) (Post, error)
	PostWithMedia(ctx context.Context, text, mediaURL string) (Post, error)
	Reply(ctx context.Context, postID, text string) (Post, error)
	Like(ctx context.Context, postID string) (bool, error)
	Replies(ctx context.Context, postID string, count int) ([]Post, error)
}

// Post is a read-only view of a social post as the agent sees it.
type Post struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	Mentions       []string  `json:"mentions,omitempty"`
}

// ParamSpec describes one positional action parameter.
type ParamSpec struct {
	Name        string
	Required    bool
	Description string
}

// ActionSpec describes a named action and its ordered parameter list.
type ActionSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// State tracks connection health. The retry wrapper mutates the error
// counters; lifecycle calls flip Connected. Guarded by its own mutex since
// health checks may run alongside loop calls.
type State struct {
	mu         sync.Mutex
	connected  bool
	lastError  string
	errorCount int
}

// SetConnected marks the connection up or down.
func (s *State) SetConnected(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = up
}

// Connected reports whether the connection is initialized.
func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// RecordFailure increments the error counter and remembers the error.
func (s *State) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount++
	s.lastError = err.Error()
}

// RecordSuccess resets the error counter.
func (s *State) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount = 0
}

// Snapshot returns (connected, lastError, errorCount) without holding the lock.
func (s *State) Snapshot() (bool, string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected, s.lastError, s.errorCount
}
