package agent

import (
	"strings"
	"testing"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
)

func testConfig() *config.Agent {
	return &config.Agent{
		Name:      "finch",
		Bio:       []string{"You are Finch.", "You post sharp takes about software."},
		Traits:    []string{"curious", "blunt"},
		Examples:  []string{"shipping is the only metric"},
		LoopDelay: 30,
		Tasks: []config.Task{
			{Name: config.TaskPost, Weight: 1},
			{Name: config.TaskReply, Weight: 1},
		},
		Conns: []config.ConnectionConfig{
			{Name: "openai", Model: "gpt-4o-mini", Temperature: 0.8},
			{Name: "twitter", Username: "finchbot", UserID: "42", TweetInterval: 600},
		},
	}
}

func TestAgent_SystemPrompt(t *testing.T) {
	a := New(testConfig(), connections.NewManager(), nil)

	prompt := a.SystemPrompt()
	for _, want := range []string{
		"You are Finch.",
		"Your key traits are:",
		"- curious",
		"- blunt",
		"examples of your style",
		"- shipping is the only metric",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q:\n%s", want, prompt)
		}
	}

	if again := a.SystemPrompt(); again != prompt {
		t.Error("system prompt not stable across calls")
	}
}

func TestAgent_SystemPromptOmitsEmptySections(t *testing.T) {
	cfg := testConfig()
	cfg.Traits = nil
	cfg.Examples = nil
	a := New(cfg, connections.NewManager(), nil)

	prompt := a.SystemPrompt()
	if strings.Contains(prompt, "key traits") || strings.Contains(prompt, "examples of your style") {
		t.Errorf("empty sections should be omitted:\n%s", prompt)
	}
}

func TestAgent_IsSelf(t *testing.T) {
	a := New(testConfig(), connections.NewManager(), nil)

	cases := []struct {
		name string
		post connections.Post
		want bool
	}{
		{"matching id", connections.Post{AuthorID: "42", AuthorUsername: "someone-else"}, true},
		{"different id wins over matching username", connections.Post{AuthorID: "7", AuthorUsername: "finchbot"}, false},
		{"username fallback when post has no id", connections.Post{AuthorUsername: "FinchBot"}, true},
		{"no identity on post", connections.Post{}, false},
		{"different everything", connections.Post{AuthorID: "7", AuthorUsername: "other"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.IsSelf(tc.post); got != tc.want {
				t.Errorf("IsSelf(%+v) = %v, want %v", tc.post, got, tc.want)
			}
		})
	}
}

func TestAgent_IsSelfUsernameOnlyIdentity(t *testing.T) {
	cfg := testConfig()
	cfg.Connection("twitter").UserID = ""
	a := New(cfg, connections.NewManager(), nil)

	if !a.IsSelf(connections.Post{AuthorID: "999", AuthorUsername: "finchbot"}) {
		t.Error("username match should identify self when no user id is configured")
	}
}

func TestAgent_TwitterSettingsApplied(t *testing.T) {
	a := New(testConfig(), connections.NewManager(), nil)
	if a.tweetInterval.Seconds() != 600 {
		t.Errorf("tweet interval = %v, want 600s", a.tweetInterval)
	}
	if a.ownRepliesCount != defaultOwnRepliesCount {
		t.Errorf("own replies count = %d, want default %d", a.ownRepliesCount, defaultOwnRepliesCount)
	}
	if a.timelineReadCount != defaultTimelineReadCount {
		t.Errorf("timeline read count = %d, want default %d", a.timelineReadCount, defaultTimelineReadCount)
	}
}

func TestState_PeekCommitPop(t *testing.T) {
	s := NewState()
	if _, ok := s.Peek(); ok {
		t.Fatal("peek on empty state should report not ok")
	}

	s.Enqueue(connections.Post{ID: "1"}, connections.Post{ID: "2"})

	p, ok := s.Peek()
	if !ok || p.ID != "1" {
		t.Fatalf("peek = (%+v, %v), want post 1", p, ok)
	}

	// Peeking again without committing returns the same post.
	p, _ = s.Peek()
	if p.ID != "1" {
		t.Fatalf("second peek = %q, want 1", p.ID)
	}

	s.CommitPop()
	p, _ = s.Peek()
	if p.ID != "2" {
		t.Fatalf("after commit, peek = %q, want 2", p.ID)
	}

	s.CommitPop()
	s.CommitPop() // extra pop on empty buffer is a no-op
	if s.TimelineLen() != 0 {
		t.Errorf("timeline len = %d, want 0", s.TimelineLen())
	}
}
