// Package answer assembles retrieval context for a question and produces the
// final answer through the generation backend.
package answer

import (
	"math/rand"
	"strings"
	"time"
)

// Two small closed sets of conversational inputs bypass retrieval entirely.
// Matching is exact on the whole message after lower-casing, trimming, and
// punctuation-stripping; a greeting word buried in a real question does not
// short-circuit.
var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {}, "whats up": {}, "wassup": {},
}

var moodQueries = map[string]struct{}{
	"how are you": {}, "how u doing": {}, "how you doing": {}, "hows it going": {}, "whats good": {},
}

var greetingReplies = []string{
	"Yo! PDFs beware, I'm armed with context and caffeine.",
	"Hey there, digital traveler. Ready to drop some PDFs on me?",
	"What's poppin'? If it's a PDF, I'm down to read it like a nerd on espresso.",
	"Sup? Upload your knowledge dumps and I'll do the thinking.",
	"Hi! Toss me some PDFs and let's pretend I'm smart together.",
}

var moodReplies = []string{
	"I'm vibing at 1000 tokens per second, thanks for asking.",
	"Emotion.exe not found, but I'm functioning perfectly. Let's do this.",
	"I'm just a bunch of code and chaos, but livin' my best artificial life.",
	"I'm doing better than your GPA during finals, probably. Ask away.",
	"Feeling like a server on Black Friday: overwhelmed but powered up.",
}

// Responder answers greeting and mood messages from fixed reply pools. The
// pick function selects a pool index so tests can pin the choice.
type Responder struct {
	pick func(n int) int
}

// NewResponder returns a Responder selecting replies uniformly at random.
func NewResponder() *Responder {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Responder{pick: rng.Intn}
}

// NewResponderWithPick returns a Responder using pick for reply selection.
func NewResponderWithPick(pick func(n int) int) *Responder {
	return &Responder{pick: pick}
}

// Match returns a canned reply when the whole question is a greeting or a mood
// query, and false otherwise.
func (r *Responder) Match(question string) (string, bool) {
	cleaned := cleanIntent(question)
	if _, ok := greetings[cleaned]; ok {
		return greetingReplies[r.pick(len(greetingReplies))], true
	}
	if _, ok := moodQueries[cleaned]; ok {
		return moodReplies[r.pick(len(moodReplies))], true
	}
	return "", false
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// cleanIntent lower-cases, strips ASCII punctuation, and trims the question.
func cleanIntent(question string) string {
	lowered := strings.ToLower(strings.TrimSpace(question))
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, lowered)
	return strings.TrimSpace(stripped)
}
