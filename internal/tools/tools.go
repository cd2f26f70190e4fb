package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/logger"
	"github.com/spigell/strengths-agent/internal/profiles"
	"github.com/spigell/strengths-agent/internal/strengths"
)

const (
	StoreProfile         = "store_profile"
	GetProfile           = "get_profile"
	GetAllProfiles       = "get_all_profiles"
	CompareProfiles      = "compare_profiles"
	CompareProfileToTeam = "compare_profile_to_team"
)

// ProfileStore is the storage the tools read from and write to.
type ProfileStore interface {
	Put(ctx context.Context, p strengths.Profile) profiles.WriteResult
	FindByName(ctx context.Context, firstName, lastName string) profiles.LookupResult
	FindByEmail(ctx context.Context, email string) profiles.LookupResult
	All(ctx context.Context) profiles.LookupResult
}

type handler func(ctx context.Context, args map[string]any) any

// Registry exposes profile operations as model tools.
type Registry struct {
	store    ProfileStore
	logger   *zap.Logger
	handlers map[string]handler
}

// New creates a Registry backed by store.
func New(store ProfileStore, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Registry{store: store, logger: log}
	r.handlers = map[string]handler{
		StoreProfile:         r.storeProfile,
		GetProfile:           r.getProfile,
		GetAllProfiles:       r.getAllProfiles,
		CompareProfiles:      r.compareProfiles,
		CompareProfileToTeam: r.compareProfileToTeam,
	}
	return r
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs call and returns its structured result.
func (r *Registry) Dispatch(ctx context.Context, call agent.ToolCall) agent.ToolResult {
	log := logger.WithToolCall(r.logger, call.Name, call.ID)

	h, ok := r.handlers[call.Name]
	if !ok {
		log.Warn("unknown tool requested")
		return result(call, failure(fmt.Sprintf("Unknown tool: %s", call.Name)))
	}

	log.Debug("dispatching tool", zap.Any("args", call.Args))
	out := h(ctx, call.Args)

	response, err := toResponse(out)
	if err != nil {
		log.Error("encoding tool result", zap.Error(err))
		return result(call, failure(fmt.Sprintf("Error encoding %s result: %s", call.Name, err)))
	}

	if success, _ := response["success"].(bool); !success {
		log.Info("tool reported failure", zap.Any("message", response["message"]))
	}

	return result(call, response)
}

type nameArgs struct {
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
}

type emailArgs struct {
	EmailAddress string `mapstructure:"email_address"`
}

type compareArgs struct {
	TargetProfile strengths.Profile   `mapstructure:"target_profile"`
	OtherProfiles []strengths.Profile `mapstructure:"other_profiles"`
}

// teamComparison extends a ranking with the profile used as the target.
type teamComparison struct {
	strengths.Result
	TargetEmail string `json:"target_email,omitempty"`
}

func (r *Registry) storeProfile(ctx context.Context, args map[string]any) any {
	var p strengths.Profile
	if err := decode(args, &p); err != nil {
		return profiles.WriteResult{Message: fmt.Sprintf("Error storing profile: %s", err)}
	}

	if unknown := strengths.UnknownThemes(p.Strengths); len(unknown) > 0 {
		r.logger.Warn("storing profile with unknown themes",
			logger.Email(p.EmailAddress),
			zap.Strings("unknown", unknown),
		)
	}

	return r.store.Put(ctx, p)
}

func (r *Registry) getProfile(ctx context.Context, args map[string]any) any {
	var a nameArgs
	if err := decode(args, &a); err != nil {
		return lookupFailure("Error retrieving profile", err)
	}
	return r.store.FindByName(ctx, a.FirstName, a.LastName)
}

func (r *Registry) getAllProfiles(ctx context.Context, _ map[string]any) any {
	return r.store.All(ctx)
}

func (r *Registry) compareProfiles(_ context.Context, args map[string]any) any {
	var a compareArgs
	if err := decode(args, &a); err != nil {
		return strengths.Failure(err)
	}
	return strengths.Rank(a.TargetProfile, a.OtherProfiles)
}

func (r *Registry) compareProfileToTeam(ctx context.Context, args map[string]any) any {
	var a emailArgs
	if err := decode(args, &a); err != nil {
		return strengths.Failure(err)
	}

	email := strings.TrimSpace(a.EmailAddress)
	target := r.store.FindByEmail(ctx, email)
	if !target.Success || target.Count == 0 {
		return strengths.Result{Message: target.Message}
	}

	all := r.store.All(ctx)
	if !all.Success {
		return strengths.Result{Message: all.Message}
	}

	others := make([]strengths.Profile, 0, len(all.Profiles))
	for _, p := range all.Profiles {
		if !strings.EqualFold(p.EmailAddress, email) {
			others = append(others, p)
		}
	}

	return teamComparison{
		Result:      strengths.Rank(target.Profiles[0], others),
		TargetEmail: email,
	}
}

func decode(args map[string]any, out any) error {
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

// toResponse turns a result struct into the generic map sent back to the model.
func toResponse(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func failure(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

func lookupFailure(prefix string, err error) profiles.LookupResult {
	return profiles.LookupResult{
		Message:  fmt.Sprintf("%s: %s", prefix, err),
		Profiles: []strengths.Profile{},
	}
}

func result(call agent.ToolCall, response map[string]any) agent.ToolResult {
	return agent.ToolResult{ID: call.ID, Name: call.Name, Response: response}
}

// Declarations describes the tools for the Gemini API.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	return declarations()
}

func declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name: StoreProfile,
			Description: "Store or update an employee's CliftonStrengths profile. " +
				"The email address is the unique identifier; storing again overwrites the previous profile.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"first_name":    stringSchema("Employee's first name"),
					"last_name":     stringSchema("Employee's last name"),
					"email_address": stringSchema("Employee's unique email address"),
					"strengths":     strengthsSchema(),
				},
				Required: []string{"first_name", "last_name", "email_address", "strengths"},
			},
		},
		{
			Name: GetProfile,
			Description: "Retrieve CliftonStrengths profiles by first and last name. " +
				"Several employees may share a name; each profile includes the email address to tell them apart.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"first_name": stringSchema("Employee's first name"),
					"last_name":  stringSchema("Employee's last name"),
				},
				Required: []string{"first_name", "last_name"},
			},
		},
		{
			Name:        GetAllProfiles,
			Description: "Retrieve every CliftonStrengths profile stored in the database.",
		},
		{
			Name: CompareProfiles,
			Description: "Rank profiles by similarity to a target profile. The score is the sum of rank " +
				"differences over the target's themes, with 34 points for a missing theme. Lower is more similar.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"target_profile": profileSchema("The profile to compare against"),
					"other_profiles": {
						Type:        genai.TypeArray,
						Description: "Profiles to score against the target",
						Items:       profileSchema("A profile to compare"),
					},
				},
				Required: []string{"target_profile", "other_profiles"},
			},
		},
		{
			Name:        CompareProfileToTeam,
			Description: "Rank every stored profile by similarity to the stored profile with the given email address.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"email_address": stringSchema("Email address of the target profile"),
				},
				Required: []string{"email_address"},
			},
		},
	}
}

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func strengthsSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: "All 34 CliftonStrengths themes in ranked order, strongest first",
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func profileSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: description,
		Properties: map[string]*genai.Schema{
			"first_name":    stringSchema("First name"),
			"last_name":     stringSchema("Last name"),
			"email_address": stringSchema("Email address"),
			"strengths":     strengthsSchema(),
		},
		Required: []string{"strengths"},
	}
}
