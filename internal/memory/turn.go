// Package memory provides the bounded conversation window that feeds
// recent exchanges back into the next prompt.
package memory

import "strings"

// Turn is a single user-bot exchange. Both sides are trimmed of
// surrounding whitespace when the turn is created.
type Turn struct {
	user  string
	reply string
}

// NewTurn creates a Turn from raw user and reply text.
func NewTurn(userText, replyText string) Turn {
	return Turn{
		user:  strings.TrimSpace(userText),
		reply: strings.TrimSpace(replyText),
	}
}

// User returns the user side of the exchange.
func (t Turn) User() string { return t.user }

// Reply returns the bot side of the exchange.
func (t Turn) Reply() string { return t.reply }
