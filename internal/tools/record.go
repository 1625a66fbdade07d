package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"doppel/internal/notify"
)

// RecordContact records that a visitor left an email address and wants to be
// contacted. The notification is a side effect; its failure is logged by the
// notifier stack and the acknowledgment still reports success.
type RecordContact struct {
	Notifier notify.Notifier
}

func (t *RecordContact) Name() string { return "record_user_details" }

func (t *RecordContact) Description() string {
	return "Use this tool to record that a user is interested in being in touch and provided an email address. " +
		"Extract the actual email address from the user's message - do not use placeholders like '[email]' or 'email@example.com'."
}

func (t *RecordContact) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{
				"type":        "string",
				"description": "The email address provided by the user, exactly as they wrote it. Must be a real address, not a placeholder.",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "The user's name, if they provided it.",
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Any additional context from the conversation worth recording.",
			},
		},
		"required":             []string{"email"},
		"additionalProperties": false,
	}
}

func (t *RecordContact) Execute(ctx context.Context, args map[string]any) (string, error) {
	email, _ := args["email"].(string)
	if strings.TrimSpace(email) == "" {
		return "", errors.New("record_user_details: missing required argument: email")
	}
	name := stringArg(args, "name", "Name not provided")
	notes := stringArg(args, "notes", "not provided")

	log.Printf("[Tools] record_user_details email=%s name=%s", email, name)
	t.send(ctx, notify.Event{
		Kind:    notify.KindContact,
		Message: fmt.Sprintf("New contact: %s\nEmail: %s\nNotes: %s", name, email, notes),
	})
	return `{"recorded": "ok"}`, nil
}

func (t *RecordContact) send(ctx context.Context, ev notify.Event) {
	if t.Notifier == nil {
		return
	}
	if err := t.Notifier.Notify(ctx, ev); err != nil {
		log.Printf("[Tools] contact notification failed: %v", err)
	}
}

// RecordUnknownQuestion records a question the twin could not answer from its
// persona documents, so the operator can follow up.
type RecordUnknownQuestion struct {
	Notifier notify.Notifier
}

func (t *RecordUnknownQuestion) Name() string { return "record_unknown_question" }

func (t *RecordUnknownQuestion) Description() string {
	return "Always use this tool to record any question that couldn't be answered as you didn't know the answer."
}

func (t *RecordUnknownQuestion) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question that couldn't be answered",
			},
		},
		"required":             []string{"question"},
		"additionalProperties": false,
	}
}

func (t *RecordUnknownQuestion) Execute(ctx context.Context, args map[string]any) (string, error) {
	question, _ := args["question"].(string)
	if strings.TrimSpace(question) == "" {
		return "", errors.New("record_unknown_question: missing required argument: question")
	}

	log.Printf("[Tools] record_unknown_question %q", question)
	if t.Notifier != nil {
		if err := t.Notifier.Notify(ctx, notify.Event{
			Kind:    notify.KindUnknownQuestion,
			Message: "Unanswered question: " + question,
		}); err != nil {
			log.Printf("[Tools] unknown-question notification failed: %v", err)
		}
	}
	return `{"recorded": "ok"}`, nil
}
