package agent

import (
	"time"

	"github.com/nextlevelbuilder/finch/internal/connections"
)

// State is the transient, in-memory loop state. It is owned by the running
// loop and mutated only on the loop goroutine, so it carries no lock.
// Nothing here survives a process restart.
type State struct {
	timeline     []connections.Post
	lastPostTime time.Time
}

func NewState() *State {
	return &State{}
}

// TimelineLen returns the number of buffered posts.
func (s *State) TimelineLen() int { return len(s.timeline) }

// Peek returns the front of the buffered timeline without consuming it.
// Pops are committed separately so a failed iteration leaves the buffer
// untouched.
func (s *State) Peek() (connections.Post, bool) {
	if len(s.timeline) == 0 {
		return connections.Post{}, false
	}
	return s.timeline[0], true
}

// CommitPop removes the front element. Call only after the peeked post was
// actually consumed.
func (s *State) CommitPop() {
	if len(s.timeline) > 0 {
		s.timeline = s.timeline[1:]
	}
}

// Enqueue appends posts at the back of the buffer.
func (s *State) Enqueue(posts ...connections.Post) {
	s.timeline = append(s.timeline, posts...)
}

// LastPostTime returns when the agent last posted.
func (s *State) LastPostTime() time.Time { return s.lastPostTime }

// MarkPosted records a successful post.
func (s *State) MarkPosted(t time.Time) { s.lastPostTime = t }
