package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxSteps bounds the number of model calls made by a single Run.
	DefaultMaxSteps = 25
	// StepLimitMessage replaces a tool request made on the last allowed step.
	StepLimitMessage = "Sorry, I could not find an answer to your question in the specified number of steps."

	defaultParallelTools = 4
)

// State is the position of a Run in its loop.
type State int

const (
	StateAwaitingModel State = iota
	StateDispatchingTools
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateDispatchingTools:
		return "dispatching_tools"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Model produces the next message of a conversation.
type Model interface {
	Generate(ctx context.Context, system string, history []Message) (Message, error)
}

// Dispatcher executes tool calls. It reports failures inside the result, never as an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, call ToolCall) ToolResult
}

// Options tune an Agent.
type Options struct {
	MaxSteps int
	// SystemPrompt is rendered before every model call. Defaults to SystemPrompt(time.Now()).
	SystemPrompt func() string
	// ParallelTools limits how many tool calls of one step run at once.
	ParallelTools int
}

// Agent alternates between the model and the tools until the model answers.
type Agent struct {
	model    Model
	tools    Dispatcher
	maxSteps int
	parallel int
	system   func() string
	logger   *zap.Logger
}

// New creates an Agent.
func New(model Model, tools Dispatcher, opts Options, logger *zap.Logger) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.ParallelTools <= 0 {
		opts.ParallelTools = defaultParallelTools
	}
	if opts.SystemPrompt == nil {
		opts.SystemPrompt = func() string { return SystemPrompt(time.Now()) }
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		model:    model,
		tools:    tools,
		maxSteps: opts.MaxSteps,
		parallel: opts.ParallelTools,
		system:   opts.SystemPrompt,
		logger:   logger,
	}
}

// Run continues history until the model replies without tool calls or the
// step budget is spent. It returns the messages produced by this run only.
func (a *Agent) Run(ctx context.Context, history []Message) ([]Message, error) {
	conversation := append([]Message(nil), history...)
	var produced []Message

	emit := func(m Message) {
		conversation = append(conversation, m)
		produced = append(produced, m)
	}

	state := StateAwaitingModel
	step := 0
	var pending []ToolCall

	for {
		if err := ctx.Err(); err != nil {
			return produced, err
		}

		switch state {
		case StateAwaitingModel:
			step++
			a.logger.Debug("agent step", zap.Int("step", step), zap.Stringer("state", state))

			reply, err := a.model.Generate(ctx, a.system(), conversation)
			if err != nil {
				return produced, fmt.Errorf("step %d: generate: %w", step, err)
			}
			reply.Role = RoleModel

			if !reply.HasToolCalls() {
				emit(reply)
				return produced, nil
			}

			if step >= a.maxSteps {
				a.logger.Warn("step budget exhausted",
					zap.Int("max_steps", a.maxSteps),
					zap.Strings("requested_tools", toolNames(reply.ToolCalls)),
				)
				emit(Message{Role: RoleModel, Text: StepLimitMessage})
				return produced, nil
			}

			reply.ToolCalls = withIDs(reply.ToolCalls)
			emit(reply)
			pending = reply.ToolCalls
			state = StateDispatchingTools

		case StateDispatchingTools:
			a.logger.Debug("agent step",
				zap.Int("step", step),
				zap.Stringer("state", state),
				zap.Strings("tools", toolNames(pending)),
			)

			emit(Message{Role: RoleTool, ToolResults: a.dispatch(ctx, pending)})
			pending = nil
			state = StateAwaitingModel
		}
	}
}

// dispatch runs calls concurrently and returns their results in call order.
func (a *Agent) dispatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallel)
	for i, call := range calls {
		g.Go(func() error {
			res := a.tools.Dispatch(gctx, call)
			res.ID = call.ID
			if res.Name == "" {
				res.Name = call.Name
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func withIDs(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, call := range calls {
		if strings.TrimSpace(call.ID) == "" {
			call.ID = uuid.NewString()
		}
		out[i] = call
	}
	return out
}

func toolNames(calls []ToolCall) []string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Name)
	}
	return names
}

// Session keeps the history of one conversation across user turns.
type Session struct {
	agent *Agent

	mu      sync.Mutex
	history []Message
}

// NewSession starts an empty conversation.
func (a *Agent) NewSession() *Session {
	return &Session{agent: a}
}

// Send adds a user turn, runs the agent and returns the final reply text.
// On error the turn is discarded and the history is left unchanged.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := append(append([]Message(nil), s.history...), UserMessage(text))

	produced, err := s.agent.Run(ctx, turn)
	if err != nil {
		return "", err
	}

	s.history = append(turn, produced...)

	if len(produced) == 0 {
		return "", nil
	}
	return produced[len(produced)-1].Text, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}
