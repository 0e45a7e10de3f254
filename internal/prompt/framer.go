// Package prompt frames the text sent to the generation backend and
// recovers the bot's reply from what comes back.
package prompt

import "strings"

// FallbackReply is shown, and remembered, when no reply could be extracted.
const FallbackReply = "Sorry, I don't have an answer right now."

const (
	userPrefix = "User: "
	botCue     = "\nBot:"
)

// stopMarkers are checked in order. The first one present wins, even if a
// later-listed marker occurs earlier in the text.
var stopMarkers = []string{"\nUser:", "\nBot:", "User:", "Bot:"}

// StopMarkers returns the stop markers in priority order.
func StopMarkers() []string {
	out := make([]string, len(stopMarkers))
	copy(out, stopMarkers)
	return out
}

// BuildPrompt appends the user input to the rendered context and ends the
// text with a bare "Bot:" cue so the model continues as the bot.
func BuildPrompt(context, userInput string) string {
	return context + userPrefix + userInput + botCue
}

// Extraction is the outcome of parsing a generated text.
type Extraction struct {
	// Reply is the cleaned reply. It may be empty.
	Reply string

	// Echoed reports whether the generated text started with the prompt.
	Echoed bool

	// Truncated reports whether a stop marker cut the reply short.
	Truncated bool

	// Marker is the stop marker that cut the reply, if any.
	Marker string
}

// ExtractReply isolates the bot's reply from generated text.
// See ExtractReplyDetail.
func ExtractReply(generated, prompt string) string {
	return ExtractReplyDetail(generated, prompt).Reply
}

// ExtractReplyDetail strips the echoed prompt from generated, cuts the
// remainder at the first stop marker present (in priority order) and trims
// the result. Backends that do not echo the prompt have their whole output
// treated as the reply candidate.
func ExtractReplyDetail(generated, prompt string) Extraction {
	var ext Extraction

	candidate := generated
	if rest, ok := strings.CutPrefix(generated, prompt); ok {
		candidate = rest
		ext.Echoed = true
	}

	for _, marker := range stopMarkers {
		if before, _, found := strings.Cut(candidate, marker); found {
			candidate = before
			ext.Truncated = true
			ext.Marker = marker
			break
		}
	}

	ext.Reply = strings.TrimSpace(candidate)
	return ext
}
