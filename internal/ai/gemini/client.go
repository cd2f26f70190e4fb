package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/logger"
	"github.com/spigell/strengths-agent/internal/utils"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200

	retryBaseDelay = 2 * time.Second
	maxRetryDelay  = 30 * time.Second

	provider = "gemini"
)

var wait = utils.WaitFor

var retryHint = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator drives Gemini with the conversation history and the declared tools.
type Generator struct {
	models     modelsAPI
	model      string
	maxRetries int
	maxLogLen  int
	tools      []*genai.Tool
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, maxRetries, log), nil
}

func newGenerator(models modelsAPI, model string, maxRetries int, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  defaultMaxLogLength,
		logger:     logger.WithCommonFields(log, provider, model),
	}
}

// WithTools declares the functions the model may call.
func (g *Generator) WithTools(decls []*genai.FunctionDeclaration) *Generator {
	if len(decls) == 0 {
		g.tools = nil
		return g
	}
	g.tools = []*genai.Tool{{FunctionDeclarations: decls}}
	return g
}

// WithMaxLogLength limits the previews of prompts and replies in debug logs.
func (g *Generator) WithMaxLogLength(n int) *Generator {
	if n > 0 {
		g.maxLogLen = n
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate sends the system instruction and history to Gemini and returns its reply.
func (g *Generator) Generate(ctx context.Context, system string, history []agent.Message) (agent.Message, error) {
	if g == nil || g.models == nil {
		return agent.Message{}, errors.New("gemini generator is not initialized")
	}

	contents := toContents(history)
	if len(contents) == 0 {
		return agent.Message{}, errors.New("history must not be empty")
	}

	config := &genai.GenerateContentConfig{Tools: g.tools}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("history_length", len(contents)),
		zap.Int("system_length", utf8.RuneCountInString(system)),
		zap.String("last_turn_preview", utils.TruncateForLog(lastText(history), g.maxLogLen)),
	)

	resp, err := g.generate(ctx, contents, config)
	if err != nil {
		return agent.Message{}, err
	}

	reply, err := fromResponse(resp)
	if err != nil {
		return agent.Message{}, err
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(reply.Text)),
		zap.String("response_preview", utils.TruncateForLog(reply.Text, g.maxLogLen)),
		zap.Int("tool_calls", len(reply.ToolCalls)),
	)

	return reply, nil
}

func (g *Generator) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("retrying gemini request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("generate content: %w", lastErr)
}

// retryDelay decides whether err is temporary and how long to back off.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	backoff := time.Duration(attempt) * retryBaseDelay

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	case apiErr.Code == http.StatusTooManyRequests:
		hint, ok := quotaDelay(apiErr)
		if !ok {
			return backoff, true
		}
		if hint > maxRetryDelay {
			return 0, false
		}
		return hint, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

// quotaDelay extracts the server's retry hint from RetryInfo details or the message text.
func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "RetryInfo") {
			continue
		}
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d, true
			}
		}
	}

	m := retryHint.FindStringSubmatch(apiErr.Message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func toContents(history []agent.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var parts []*genai.Part
		role := string(genai.RoleUser)

		switch m.Role {
		case agent.RoleModel:
			role = string(genai.RoleModel)
			if text := strings.TrimSpace(m.Text); text != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
		case agent.RoleTool:
			for _, res := range m.ToolResults {
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       res.ID,
					Name:     res.Name,
					Response: res.Response,
				}})
			}
		default:
			if text := strings.TrimSpace(m.Text); text != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
		}

		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func fromResponse(resp *genai.GenerateContentResponse) (agent.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return agent.Message{}, errors.New("gemini api returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		reason := ""
		if candidate != nil {
			reason = string(candidate.FinishReason)
		}
		return agent.Message{}, fmt.Errorf("gemini api returned empty candidate (finish reason %q)", reason)
	}

	reply := agent.Message{Role: agent.RoleModel}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		text := strings.TrimSpace(part.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}
	reply.Text = builder.String()

	if reply.Text == "" && !reply.HasToolCalls() {
		return agent.Message{}, errors.New("gemini api returned empty response")
	}

	return reply, nil
}

func lastText(history []agent.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(history[i].Text); t != "" {
			return t
		}
	}
	return ""
}
