// Package config loads and validates agent personality files.
// Agent files are JSON5 (comments and trailing commas allowed); YAML files
// are accepted too for people who keep their personas in YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// ConfigError marks a malformed or incomplete agent configuration.
// Fatal at load time; the agent does not start.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "agent config: " + e.Reason }

// Task names the agent loop understands.
const (
	TaskPost          = "post"
	TaskReply         = "reply"
	TaskLike          = "like"
	TaskPostWithImage = "post-with-image"
)

var knownTasks = map[string]bool{
	TaskPost:          true,
	TaskReply:         true,
	TaskLike:          true,
	TaskPostWithImage: true,
}

// socialTasks are the task kinds that require a social connection.
var socialTasks = map[string]bool{
	TaskPost:          true,
	TaskReply:         true,
	TaskLike:          true,
	TaskPostWithImage: true,
}

// Task is one weighted loop action. Loaded once, immutable afterwards.
type Task struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// ConnectionConfig is the per-connection block. Settings beyond the common
// fields are connection-specific and kept opaque here; each connection
// validates its own section at construction.
type ConnectionConfig struct {
	Name          string  `json:"name" yaml:"name"`
	Model         string  `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature   float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	RateLimitRPM  int     `json:"rate_limit_rpm,omitempty" yaml:"rate_limit_rpm,omitempty"`
	RetryAttempts int     `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`

	// Twitter-specific.
	Username          string `json:"username,omitempty" yaml:"username,omitempty"`
	UserID            string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	TweetInterval     int    `json:"tweet_interval,omitempty" yaml:"tweet_interval,omitempty"`
	TimelineReadCount int    `json:"timeline_read_count,omitempty" yaml:"timeline_read_count,omitempty"`
	OwnRepliesCount   int    `json:"own_replies_count,omitempty" yaml:"own_replies_count,omitempty"`

	// OpenAI-specific image settings.
	ImageModel   string `json:"image_model,omitempty" yaml:"image_model,omitempty"`
	ImageSize    string `json:"image_size,omitempty" yaml:"image_size,omitempty"`
	ImageQuality string `json:"image_quality,omitempty" yaml:"image_quality,omitempty"`
}

// Agent is the full personality configuration.
type Agent struct {
	Name      string             `json:"name" yaml:"name"`
	Bio       []string           `json:"bio" yaml:"bio"`
	Traits    []string           `json:"traits" yaml:"traits"`
	Examples  []string           `json:"examples" yaml:"examples"`
	LoopDelay int                `json:"loop_delay" yaml:"loop_delay"` // seconds between successful iterations
	Tasks     []Task             `json:"tasks" yaml:"tasks"`
	Conns     []ConnectionConfig `json:"connections" yaml:"connections"`
}

// modelProviders are connection names that provide text generation.
var modelProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
}

// Load reads and validates an agent file. The codec is chosen by extension:
// .yaml/.yml use YAML, everything else JSON5.
func Load(path string) (*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent file: %w", err)
	}

	var agent Agent
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &agent)
	default:
		err = json5.Unmarshal(data, &agent)
	}
	if err != nil {
		return nil, fmt.Errorf("parse agent file %s: %w", path, err)
	}

	if err := agent.Validate(); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Validate enforces the load-time invariants. Violations are ConfigErrors.
func (a *Agent) Validate() error {
	if a.Name == "" {
		return &ConfigError{Reason: "name is required"}
	}
	if len(a.Bio) == 0 {
		return &ConfigError{Reason: "bio is required"}
	}
	if a.LoopDelay <= 0 {
		return &ConfigError{Reason: "loop_delay must be positive"}
	}
	if len(a.Tasks) == 0 {
		return &ConfigError{Reason: "at least one task is required"}
	}

	positive := false
	needsSocial := false
	for _, task := range a.Tasks {
		if !knownTasks[task.Name] {
			return &ConfigError{Reason: fmt.Sprintf("unknown task %q", task.Name)}
		}
		if task.Weight < 0 {
			return &ConfigError{Reason: fmt.Sprintf("task %q has negative weight", task.Name)}
		}
		if task.Weight > 0 {
			positive = true
		}
		if socialTasks[task.Name] {
			needsSocial = true
		}
	}
	if !positive {
		return &ConfigError{Reason: "at least one task must have positive weight"}
	}

	if needsSocial && a.Connection("twitter") == nil {
		return &ConfigError{Reason: "tasks target the social network but no twitter connection is configured"}
	}

	hasModel := false
	for _, conn := range a.Conns {
		if conn.Name == "" {
			return &ConfigError{Reason: "connection block missing name"}
		}
		if modelProviders[conn.Name] {
			hasModel = true
			if conn.Temperature < 0 || conn.Temperature > 2 {
				return &ConfigError{Reason: fmt.Sprintf("connection %q: temperature out of range", conn.Name)}
			}
			if conn.MaxTokens < 0 {
				return &ConfigError{Reason: fmt.Sprintf("connection %q: max_tokens must not be negative", conn.Name)}
			}
		}
		if conn.RateLimitRPM < 0 {
			return &ConfigError{Reason: fmt.Sprintf("connection %q: rate_limit_rpm must not be negative", conn.Name)}
		}
	}
	if !hasModel {
		return &ConfigError{Reason: "at least one model provider connection (openai, anthropic) is required"}
	}

	return nil
}

// Connection returns the config block for the named connection, or nil.
func (a *Agent) Connection(name string) *ConnectionConfig {
	for i := range a.Conns {
		if a.Conns[i].Name == name {
			return &a.Conns[i]
		}
	}
	return nil
}

// IsConfigError reports whether err is a load-time configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
