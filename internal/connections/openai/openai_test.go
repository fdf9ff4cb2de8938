package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
)

func TestGenerateText_RequiresInitialize(t *testing.T) {
	c := New(&config.ConnectionConfig{Name: "openai"})
	_, err := c.GenerateText(context.Background(), "hi", "")
	if !errors.Is(err, connections.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestGenerateImage_RequiresInitialize(t *testing.T) {
	c := New(&config.ConnectionConfig{Name: "openai"})
	_, err := c.GenerateImage(context.Background(), "a cat")
	if !errors.Is(err, connections.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestActionsTable(t *testing.T) {
	c := New(&config.ConnectionConfig{Name: "openai"})
	actions := c.Actions()

	gen, ok := actions["generate-text"]
	if !ok {
		t.Fatal("generate-text missing")
	}
	if len(gen.Params) != 2 || !gen.Params[0].Required || gen.Params[1].Required {
		t.Errorf("generate-text params = %+v", gen.Params)
	}
	if _, ok := actions["generate-image"]; !ok {
		t.Error("generate-image missing")
	}
}

func TestPerform_UnknownAction(t *testing.T) {
	c := New(&config.ConnectionConfig{Name: "openai"})
	_, err := c.Perform(context.Background(), "make-coffee", nil)
	var ua *connections.UnknownActionError
	if !errors.As(err, &ua) {
		t.Errorf("err = %v, want UnknownActionError", err)
	}
}

func TestRetryAttemptsFromConfig(t *testing.T) {
	c := New(&config.ConnectionConfig{Name: "openai", RetryAttempts: 5})
	if c.retry.Attempts != 5 {
		t.Errorf("retry attempts = %d, want 5", c.retry.Attempts)
	}
	c = New(&config.ConnectionConfig{Name: "openai"})
	if c.retry.Attempts != connections.DefaultRetryConfig().Attempts {
		t.Errorf("retry attempts = %d, want default", c.retry.Attempts)
	}
}
