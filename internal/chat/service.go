package chat

import (
	"context"
	"errors"
	"log"
	"strings"
)

const (
	// maxAttempts bounds the generate/evaluate loop per user turn:
	// the initial generation plus two retries.
	maxAttempts = 3

	// maxToolRounds guards against a degenerate model that keeps calling
	// tools instead of answering.
	maxToolRounds = 5
)

// toolLoopFallback is returned when the model never produces a text reply
// within maxToolRounds.
const toolLoopFallback = "Sorry, I got stuck while looking into that. Could you rephrase the question?"

// Service runs validated conversation turns: each user message is answered by
// generating a draft (resolving any tool calls), judging it, and retrying with
// the reviewer's feedback folded into the prompt until the draft is accepted
// or attempts run out. The last draft is always delivered.
type Service struct {
	adapter   Adapter
	tools     Toolbox
	judge     Evaluator
	knowledge string
	history   []Message
}

type ServiceOption func(*Service)

// WithToolbox exposes a tool registry to the model.
func WithToolbox(tb Toolbox) ServiceOption {
	return func(s *Service) {
		s.tools = tb
	}
}

// WithEvaluator installs the secondary-model quality gate. Without one, every
// draft is accepted on the first attempt.
func WithEvaluator(e Evaluator) ServiceOption {
	return func(s *Service) {
		s.judge = e
	}
}

// NewService creates a chat service. knowledge is the persona grounding text
// prepended as the system instruction of every generation call.
func NewService(adapter Adapter, knowledge string, opts ...ServiceOption) *Service {
	s := &Service{
		adapter:   adapter,
		knowledge: knowledge,
		history:   make([]Message, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs one turn against the session history owned by the service.
func (s *Service) Send(ctx context.Context, input string) (string, error) {
	reply, history, err := s.Turn(ctx, input, s.history)
	if err != nil {
		return "", err
	}
	s.history = history
	return reply, nil
}

// Turn processes one user message against the given history and returns the
// final reply plus the extended history. The input history is not mutated;
// on error nothing is committed, so an abandoned turn leaves no partial
// tool-call/result pairs behind.
func (s *Service) Turn(ctx context.Context, input string, history []Message) (string, []Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", history, errors.New("empty input")
	}

	var (
		reply    string
		produced []Message
		guidance string
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		draft, msgs, err := s.generate(ctx, input, history, guidance)
		if err != nil {
			return "", history, &GenerationError{Attempt: attempt, Err: err}
		}
		reply, produced = draft, msgs

		verdict := s.evaluate(ctx, draft, input)
		if verdict.Accepted {
			if attempt > 1 {
				log.Printf("[Chat] draft accepted on attempt %d", attempt)
			}
			break
		}
		if attempt == maxAttempts {
			log.Printf("[Chat] delivering draft after %d rejected attempts", attempt)
			break
		}
		guidance = verdict.Feedback
	}

	next := make([]Message, 0, len(history)+len(produced))
	next = append(next, history...)
	next = append(next, produced...)
	return reply, next, nil
}

// Clear resets the session history.
func (s *Service) Clear() {
	s.history = s.history[:0]
}

// History returns a copy of the session transcript.
func (s *Service) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Knowledge returns the grounding text the service was built with.
func (s *Service) Knowledge() string {
	return s.knowledge
}

// generate produces one draft, resolving tool calls as they come. guidance,
// when non-empty, is the reviewer feedback from the previous rejected attempt;
// it augments the system instruction for this attempt only and never lands in
// history.
func (s *Service) generate(ctx context.Context, input string, history []Message, guidance string) (string, []Message, error) {
	system := s.knowledge
	if guidance != "" {
		system += "\n\n## Previous answer rejected\nReason from the reviewer:\n" + guidance +
			"\n\nRevise your answer to address the feedback while staying faithful to the provided documents."
	}

	msgs := make([]Message, 0, len(history)+8)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: input})

	var specs []ToolSpec
	if s.tools != nil {
		specs = s.tools.Specs()
	}

	produced := []Message{{Role: RoleUser, Content: input}}
	for round := 0; round < maxToolRounds; round++ {
		text, calls, err := s.adapter.Reply(ctx, msgs, specs)
		if err != nil {
			return "", nil, err
		}
		if len(calls) == 0 {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", nil, errors.New("empty response from model")
			}
			produced = append(produced, Message{Role: RoleAssistant, Content: text})
			return text, produced, nil
		}

		call := Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
		msgs = append(msgs, call)
		produced = append(produced, call)
		for _, tc := range calls {
			result := s.dispatch(ctx, tc)
			msgs = append(msgs, result)
			produced = append(produced, result)
		}
	}

	log.Printf("[Chat] tool round cap reached, delivering fallback reply")
	produced = append(produced, Message{Role: RoleAssistant, Content: toolLoopFallback})
	return toolLoopFallback, produced, nil
}

func (s *Service) dispatch(ctx context.Context, call ToolCall) Message {
	if s.tools == nil {
		return Message{
			Role:       RoleTool,
			Content:    `{"error": "no tools available"}`,
			ToolCallID: call.ID,
			ToolName:   call.Name,
		}
	}
	return s.tools.Dispatch(ctx, call)
}

func (s *Service) evaluate(ctx context.Context, draft, question string) Verdict {
	if s.judge == nil {
		return Verdict{Accepted: true}
	}
	// The judge sees the same grounding text generation used, without any
	// per-attempt guidance.
	return s.judge.Evaluate(ctx, draft, question, s.knowledge)
}
