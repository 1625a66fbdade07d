package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	content string
	err     error
	calls   int
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.content}},
	}, nil
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return f.content, f.err
}

func TestEvaluateAcceptsOnBackendError(t *testing.T) {
	j := NewLLMJudge(&fakeModel{err: errors.New("overloaded")}, "claude-test")
	v := j.Evaluate(context.Background(), "draft", "question", "docs")
	if !v.Accepted {
		t.Fatal("backend errors must auto-accept")
	}
}

func TestEvaluateParsesRejection(t *testing.T) {
	j := NewLLMJudge(&fakeModel{content: `{"acceptable": false, "feedback": "Too vague about work history."}`}, "claude-test")
	v := j.Evaluate(context.Background(), "draft", "question", "docs")
	if v.Accepted {
		t.Fatal("expected rejection")
	}
	if v.Feedback != "Too vague about work history." {
		t.Fatalf("unexpected feedback %q", v.Feedback)
	}
}

func TestEvaluateParsesProseWrappedJSON(t *testing.T) {
	content := "Here is my evaluation:\n```json\n{\"acceptable\": true, \"feedback\": \"Good answer.\"}\n```"
	j := NewLLMJudge(&fakeModel{content: content}, "claude-test")
	v := j.Evaluate(context.Background(), "draft", "question", "docs")
	if !v.Accepted || v.Feedback != "Good answer." {
		t.Fatalf("unexpected verdict %#v", v)
	}
}

func TestParseVerdictGarbageAccepts(t *testing.T) {
	v := parseVerdict("I think this is fine, probably.")
	if !v.Accepted {
		t.Fatal("unparseable output must accept")
	}
	if !strings.Contains(v.Feedback, "fine") {
		t.Fatalf("raw text should be kept as feedback, got %q", v.Feedback)
	}
}

func TestParseVerdictClipsLongFeedback(t *testing.T) {
	v := parseVerdict(strings.Repeat("a", 1000))
	if len(v.Feedback) != 400 {
		t.Fatalf("expected clipped feedback, got %d chars", len(v.Feedback))
	}
}

func TestParseVerdictMissingFieldsDefaultToAccept(t *testing.T) {
	v := parseVerdict(`{"feedback": "no decision"}`)
	if !v.Accepted {
		t.Fatal("missing acceptable field must default to accept")
	}
	if v.Feedback != "no decision" {
		t.Fatalf("unexpected feedback %q", v.Feedback)
	}
}

func TestDisabledAlwaysAccepts(t *testing.T) {
	v := Disabled{}.Evaluate(context.Background(), "anything", "q", "docs")
	if !v.Accepted || v.Feedback != "" {
		t.Fatalf("unexpected verdict %#v", v)
	}
}
