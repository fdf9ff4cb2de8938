package agent

import (
	"math/rand/v2"
	"testing"

	"github.com/nextlevelbuilder/finch/internal/config"
)

func TestSelector_RejectsBadTaskLists(t *testing.T) {
	cases := []struct {
		name  string
		tasks []config.Task
	}{
		{"empty", nil},
		{"negative weight", []config.Task{{Name: config.TaskPost, Weight: -1}}},
		{"all zero", []config.Task{{Name: config.TaskPost, Weight: 0}, {Name: config.TaskLike, Weight: 0}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSelector(tc.tasks, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSelector_PicksByCumulativeWeight(t *testing.T) {
	tasks := []config.Task{
		{Name: config.TaskPost, Weight: 1},
		{Name: config.TaskReply, Weight: 2},
		{Name: config.TaskLike, Weight: 1},
	}

	// total = 4; targets fall into [0,1) post, [1,3) reply, [3,4) like.
	cases := []struct {
		draw float64
		want string
	}{
		{0.0, config.TaskPost},
		{0.24, config.TaskPost},
		{0.25, config.TaskReply},
		{0.74, config.TaskReply},
		{0.75, config.TaskLike},
		{0.999, config.TaskLike},
	}
	for _, tc := range cases {
		s, err := NewSelector(tasks, func() float64 { return tc.draw })
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Next(); got != tc.want {
			t.Errorf("draw %.3f: got %q, want %q", tc.draw, got, tc.want)
		}
	}
}

func TestSelector_ZeroWeightTaskNeverSelected(t *testing.T) {
	tasks := []config.Task{
		{Name: config.TaskPost, Weight: 1},
		{Name: config.TaskPostWithImage, Weight: 0},
	}
	rng := rand.New(rand.NewPCG(1, 2))
	s, err := NewSelector(tasks, rng.Float64)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		if got := s.Next(); got == config.TaskPostWithImage {
			t.Fatalf("zero-weight task selected on draw %d", i)
		}
	}
}

func TestSelector_ProportionsTrackWeights(t *testing.T) {
	tasks := []config.Task{
		{Name: config.TaskPost, Weight: 3},
		{Name: config.TaskReply, Weight: 1},
	}
	rng := rand.New(rand.NewPCG(7, 11))
	s, err := NewSelector(tasks, rng.Float64)
	if err != nil {
		t.Fatal(err)
	}

	const n = 100000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		counts[s.Next()]++
	}

	postShare := float64(counts[config.TaskPost]) / n
	if postShare < 0.73 || postShare > 0.77 {
		t.Errorf("post share = %.4f, want ~0.75", postShare)
	}
}
