package chat

import "fmt"

// GenerationError reports a failed call to the generation backend. It aborts
// the current turn without committing anything to history; a rejection by the
// evaluator is not a GenerationError and never surfaces as one.
type GenerationError struct {
	Attempt int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Apology is what surfaces show the visitor when generation fails outright.
const Apology = "Sorry, I'm having trouble answering right now. Please try again in a moment."
