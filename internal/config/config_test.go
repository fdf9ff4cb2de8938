package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAgentFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validJSON5 = `{
	// a test persona
	name: "crow",
	bio: ["a chaotic bird"],
	traits: ["sarcastic"],
	examples: ["caw"],
	loop_delay: 30,
	tasks: [
		{name: "post", weight: 1},
		{name: "reply", weight: 0.5},
	],
	connections: [
		{name: "twitter", tweet_interval: 900, username: "crowbot", user_id: "42"},
		{name: "openai", model: "gpt-4o-mini", max_tokens: 280, temperature: 0.9},
	],
}`

func TestLoad_JSON5(t *testing.T) {
	path := writeAgentFile(t, "crow.json5", validJSON5)
	agent, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if agent.Name != "crow" {
		t.Errorf("name = %q, want crow", agent.Name)
	}
	if len(agent.Tasks) != 2 || agent.Tasks[0].Name != "post" {
		t.Errorf("tasks = %+v", agent.Tasks)
	}
	if conn := agent.Connection("twitter"); conn == nil || conn.TweetInterval != 900 {
		t.Errorf("twitter connection = %+v", conn)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeAgentFile(t, "crow.yaml", `
name: crow
bio: ["a chaotic bird"]
traits: ["sarcastic"]
examples: ["caw"]
loop_delay: 30
tasks:
  - name: post
    weight: 1
connections:
  - name: twitter
    username: crowbot
  - name: openai
    model: gpt-4o-mini
`)
	agent, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if agent.LoopDelay != 30 {
		t.Errorf("loop_delay = %d, want 30", agent.LoopDelay)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Agent {
		return &Agent{
			Name:      "crow",
			Bio:       []string{"bird"},
			LoopDelay: 30,
			Tasks:     []Task{{Name: TaskPost, Weight: 1}},
			Conns: []ConnectionConfig{
				{Name: "twitter"},
				{Name: "openai", Model: "gpt-4o-mini"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Agent)
		wantErr bool
	}{
		{"valid", func(a *Agent) {}, false},
		{"zero loop delay", func(a *Agent) { a.LoopDelay = 0 }, true},
		{"no tasks", func(a *Agent) { a.Tasks = nil }, true},
		{"all zero weights", func(a *Agent) { a.Tasks = []Task{{Name: TaskPost, Weight: 0}} }, true},
		{"negative weight", func(a *Agent) { a.Tasks[0].Weight = -1 }, true},
		{"unknown task", func(a *Agent) { a.Tasks = []Task{{Name: "dance", Weight: 1}} }, true},
		{"social task without twitter", func(a *Agent) { a.Conns = a.Conns[1:] }, true},
		{"no model provider", func(a *Agent) { a.Conns = a.Conns[:1] }, true},
		{"temperature out of range", func(a *Agent) { a.Conns[1].Temperature = 3 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := base()
			tt.mutate(agent)
			err := agent.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected a ConfigError")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && err != nil && !IsConfigError(err) {
				t.Errorf("err = %v, want ConfigError", err)
			}
		})
	}
}

func TestNormalizeAgentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"crow", "crow"},
		{"Crow Bot!", "crow-bot"},
		{"  ", "default"},
		{"---", "default"},
		{"UPPER_case", "upper_case"},
	}
	for _, tt := range tests {
		if got := NormalizeAgentName(tt.in); got != tt.want {
			t.Errorf("NormalizeAgentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
