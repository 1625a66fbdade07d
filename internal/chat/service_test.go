package chat

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// scriptedAdapter replays canned model responses and records every system
// prompt it was invoked with.
type scriptedAdapter struct {
	replies []scriptedReply
	calls   int
	systems []string
}

type scriptedReply struct {
	text      string
	toolCalls []ToolCall
	err       error
}

func (a *scriptedAdapter) Reply(_ context.Context, msgs []Message, _ []ToolSpec) (string, []ToolCall, error) {
	a.calls++
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		a.systems = append(a.systems, msgs[0].Content)
	}
	r := a.replies[0]
	if len(a.replies) > 1 {
		a.replies = a.replies[1:]
	}
	return r.text, r.toolCalls, r.err
}

type scriptedJudge struct {
	verdicts  []Verdict
	calls     int
	knowledge []string
}

func (j *scriptedJudge) Evaluate(_ context.Context, _, _, knowledge string) Verdict {
	j.calls++
	j.knowledge = append(j.knowledge, knowledge)
	v := j.verdicts[0]
	if len(j.verdicts) > 1 {
		j.verdicts = j.verdicts[1:]
	}
	return v
}

type stubToolbox struct {
	dispatched []ToolCall
}

func (tb *stubToolbox) Specs() []ToolSpec {
	return []ToolSpec{{Name: "record_user_details"}}
}

func (tb *stubToolbox) Dispatch(_ context.Context, call ToolCall) Message {
	tb.dispatched = append(tb.dispatched, call)
	return Message{
		Role:       RoleTool,
		Content:    `{"recorded": "ok"}`,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

func TestTurnAcceptedFirstAttempt(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{{text: "hello there"}}}
	judge := &scriptedJudge{verdicts: []Verdict{{Accepted: true}}}
	s := NewService(adapter, "persona", WithEvaluator(judge))

	reply, history, err := s.Turn(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("expected first draft, got %q", reply)
	}
	if adapter.calls != 1 || judge.calls != 1 {
		t.Fatalf("expected 1 generation and 1 evaluation, got %d/%d", adapter.calls, judge.calls)
	}
	want := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello there"},
	}
	if !reflect.DeepEqual(history, want) {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestTurnRetriesWithFeedback(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{
		{text: "draft one"},
		{text: "draft two"},
		{text: "draft three"},
	}}
	judge := &scriptedJudge{verdicts: []Verdict{
		{Accepted: false, Feedback: "too informal"},
		{Accepted: false, Feedback: "still too informal"},
		{Accepted: true},
	}}
	s := NewService(adapter, "persona", WithEvaluator(judge))

	reply, history, err := s.Turn(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "draft three" {
		t.Fatalf("expected attempt-3 draft, got %q", reply)
	}
	if adapter.calls != 3 || judge.calls != 3 {
		t.Fatalf("expected 3 generations and 3 evaluations, got %d/%d", adapter.calls, judge.calls)
	}

	if strings.Contains(adapter.systems[0], "rejected") {
		t.Fatalf("attempt 1 should carry no rejection guidance: %q", adapter.systems[0])
	}
	if !strings.Contains(adapter.systems[1], "too informal") {
		t.Fatalf("attempt 2 should carry attempt-1 feedback: %q", adapter.systems[1])
	}
	if !strings.Contains(adapter.systems[2], "still too informal") {
		t.Fatalf("attempt 3 should carry attempt-2 feedback: %q", adapter.systems[2])
	}

	// Guidance is per-attempt only: the judge always sees the base knowledge
	// and history keeps only the winning attempt.
	for i, k := range judge.knowledge {
		if k != "persona" {
			t.Fatalf("evaluation %d saw augmented knowledge: %q", i+1, k)
		}
	}
	if len(history) != 2 || history[1].Content != "draft three" {
		t.Fatalf("history should hold only the delivered draft: %#v", history)
	}
}

func TestTurnExhaustedDeliversLastDraft(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{
		{text: "draft one"},
		{text: "draft two"},
		{text: "draft three"},
	}}
	judge := &scriptedJudge{verdicts: []Verdict{{Accepted: false, Feedback: "no"}}}
	s := NewService(adapter, "persona", WithEvaluator(judge))

	reply, _, err := s.Turn(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("rejection after exhausting retries must not be an error, got %v", err)
	}
	if reply != "draft three" {
		t.Fatalf("expected attempt-3 draft, got %q", reply)
	}
	if adapter.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", adapter.calls)
	}
	if judge.calls != 3 {
		t.Fatalf("expected exactly 3 evaluations, got %d", judge.calls)
	}
}

func TestTurnWithoutEvaluatorCompletesInOneAttempt(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{{text: "draft"}}}
	s := NewService(adapter, "persona")

	reply, _, err := s.Turn(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "draft" || adapter.calls != 1 {
		t.Fatalf("expected single-attempt delivery, got %q after %d calls", reply, adapter.calls)
	}
}

func TestTurnGenerationFailureAbortsTurn(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{{err: errors.New("rate limited")}}}
	judge := &scriptedJudge{verdicts: []Verdict{{Accepted: true}}}
	s := NewService(adapter, "persona", WithEvaluator(judge))

	prior := []Message{{Role: RoleUser, Content: "earlier"}, {Role: RoleAssistant, Content: "sure"}}
	_, history, err := s.Turn(context.Background(), "hi", prior)
	if err == nil {
		t.Fatal("expected an error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if genErr.Attempt != 1 {
		t.Fatalf("expected failure on attempt 1, got %d", genErr.Attempt)
	}
	if judge.calls != 0 {
		t.Fatalf("no evaluation should run after a generation failure, got %d", judge.calls)
	}
	if !reflect.DeepEqual(history, prior) {
		t.Fatalf("aborted turn must not touch history: %#v", history)
	}
}

func TestTurnResolvesToolCalls(t *testing.T) {
	call := ToolCall{ID: "call_1", Name: "record_user_details", Arguments: `{"email":"kay@example.com"}`}
	adapter := &scriptedAdapter{replies: []scriptedReply{
		{toolCalls: []ToolCall{call}},
		{text: "thanks, I'll be in touch!"},
	}}
	toolbox := &stubToolbox{}
	s := NewService(adapter, "persona", WithToolbox(toolbox))

	reply, history, err := s.Turn(context.Background(), "reach me at kay@example.com", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "thanks, I'll be in touch!" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(toolbox.dispatched) != 1 || toolbox.dispatched[0].ID != "call_1" {
		t.Fatalf("expected exactly one dispatched call, got %#v", toolbox.dispatched)
	}

	// user, assistant tool-call, tool result, final assistant
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d: %#v", len(history), history)
	}
	if history[1].Role != RoleAssistant || len(history[1].ToolCalls) != 1 {
		t.Fatalf("message 2 should be the assistant tool call: %#v", history[1])
	}
	if history[2].Role != RoleTool || history[2].ToolCallID != "call_1" {
		t.Fatalf("message 3 should answer call_1: %#v", history[2])
	}
	if history[3].Role != RoleAssistant || history[3].Content != reply {
		t.Fatalf("final message should be the delivered reply: %#v", history[3])
	}
}

func TestTurnToolRoundCapFallsBack(t *testing.T) {
	call := ToolCall{ID: "call_x", Name: "record_user_details", Arguments: `{}`}
	adapter := &scriptedAdapter{replies: []scriptedReply{{toolCalls: []ToolCall{call}}}}
	s := NewService(adapter, "persona", WithToolbox(&stubToolbox{}))

	reply, history, err := s.Turn(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != toolLoopFallback {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
	if adapter.calls != maxToolRounds {
		t.Fatalf("expected %d rounds, got %d", maxToolRounds, adapter.calls)
	}
	final := history[len(history)-1]
	if final.Role != RoleAssistant || final.Content != toolLoopFallback {
		t.Fatalf("history should end with the fallback reply: %#v", final)
	}
}

func TestTurnIsDeterministicWithStubbedBackend(t *testing.T) {
	prior := []Message{{Role: RoleUser, Content: "earlier"}, {Role: RoleAssistant, Content: "sure"}}
	run := func() (string, []Message) {
		adapter := &scriptedAdapter{replies: []scriptedReply{{text: "stable answer"}}}
		s := NewService(adapter, "persona", WithEvaluator(&scriptedJudge{verdicts: []Verdict{{Accepted: true}}}))
		reply, history, err := s.Turn(context.Background(), "hi", prior)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return reply, history
	}

	r1, h1 := run()
	r2, h2 := run()
	if r1 != r2 {
		t.Fatalf("replies differ: %q vs %q", r1, r2)
	}
	if !reflect.DeepEqual(h1, h2) {
		t.Fatalf("history deltas differ: %#v vs %#v", h1, h2)
	}
}

func TestTurnRejectsEmptyInput(t *testing.T) {
	s := NewService(&scriptedAdapter{replies: []scriptedReply{{text: "x"}}}, "persona")
	if _, _, err := s.Turn(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSendAccumulatesSessionHistory(t *testing.T) {
	adapter := &scriptedAdapter{replies: []scriptedReply{{text: "reply one"}, {text: "reply two"}}}
	s := NewService(adapter, "persona")

	for i, want := range []string{"reply one", "reply two"} {
		got, err := s.Send(context.Background(), fmt.Sprintf("message %d", i+1))
		if err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
		if got != want {
			t.Fatalf("turn %d: expected %q, got %q", i+1, want, got)
		}
	}
	if len(s.History()) != 4 {
		t.Fatalf("expected 4 messages in session history, got %d", len(s.History()))
	}

	s.Clear()
	if len(s.History()) != 0 {
		t.Fatal("expected empty history after Clear")
	}
}
