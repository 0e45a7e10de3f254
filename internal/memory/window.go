package memory

import (
	"errors"
	"strings"
)

// ErrInvalidCapacity is returned by NewWindow when the capacity is not positive.
var ErrInvalidCapacity = errors.New("memory: capacity must be at least 1")

// Window keeps the most recent turns of a conversation, up to a fixed
// capacity. When full, adding a turn evicts the oldest one.
//
// A Window is not safe for concurrent use.
type Window struct {
	turns []Turn // ring buffer, len == capacity
	start int    // index of the oldest turn
	size  int
}

// NewWindow creates an empty window holding at most capacity turns.
func NewWindow(capacity int) (*Window, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Window{turns: make([]Turn, capacity)}, nil
}

// Add records a new exchange. Both texts are trimmed. If the window is
// full, the oldest turn is dropped first.
func (w *Window) Add(userText, replyText string) {
	turn := NewTurn(userText, replyText)
	capacity := len(w.turns)

	if w.size == capacity {
		w.turns[w.start] = turn
		w.start = (w.start + 1) % capacity
		return
	}
	w.turns[(w.start+w.size)%capacity] = turn
	w.size++
}

// RenderContext renders the retained turns oldest first as
//
//	User: <user>
//	Bot: <reply>
//
// with exactly one trailing newline. An empty window renders as "".
// The result is placed directly in front of the next prompt.
func (w *Window) RenderContext() string {
	if w.size == 0 {
		return ""
	}

	var b strings.Builder
	for _, t := range w.Turns() {
		b.WriteString("User: ")
		b.WriteString(t.user)
		b.WriteByte('\n')
		b.WriteString("Bot: ")
		b.WriteString(t.reply)
		b.WriteByte('\n')
	}
	return b.String()
}

// Turns returns a copy of the retained turns, oldest first.
func (w *Window) Turns() []Turn {
	result := make([]Turn, w.size)
	for i := range w.size {
		result[i] = w.turns[(w.start+i)%len(w.turns)]
	}
	return result
}

// Len returns the number of retained turns.
func (w *Window) Len() int {
	return w.size
}

// Capacity returns the maximum number of turns the window retains.
func (w *Window) Capacity() int {
	return len(w.turns)
}
