package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/profiles"
	"github.com/spigell/strengths-agent/internal/strengths"
)

type fakeStore struct {
	stored   []strengths.Profile
	putRes   profiles.WriteResult
	byName   profiles.LookupResult
	byEmail  profiles.LookupResult
	all      profiles.LookupResult
	nameArgs [][2]string
}

func (f *fakeStore) Put(_ context.Context, p strengths.Profile) profiles.WriteResult {
	f.stored = append(f.stored, p)
	return f.putRes
}

func (f *fakeStore) FindByName(_ context.Context, first, last string) profiles.LookupResult {
	f.nameArgs = append(f.nameArgs, [2]string{first, last})
	return f.byName
}

func (f *fakeStore) FindByEmail(context.Context, string) profiles.LookupResult {
	return f.byEmail
}

func (f *fakeStore) All(context.Context) profiles.LookupResult {
	return f.all
}

func ranked(prefix string) []string {
	out := make([]string, 0, strengths.ThemeCount)
	for i := 1; i <= strengths.ThemeCount; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

// asArgs mimics the loosely typed arguments decoded from a model response.
func asArgs(list []string) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}

func TestDeclarationsMatchHandlers(t *testing.T) {
	r := New(&fakeStore{}, zap.NewNop())

	var declared []string
	for _, d := range r.Declarations() {
		declared = append(declared, d.Name)
	}
	assert.ElementsMatch(t, r.Names(), declared)
}

func TestDispatchStoreProfile(t *testing.T) {
	store := &fakeStore{putRes: profiles.WriteResult{Success: true, Message: "Profile stored successfully for Arthur Torres (arthur@example.com)"}}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{
		ID:   "1",
		Name: StoreProfile,
		Args: map[string]any{
			"first_name":    "Arthur",
			"last_name":     "Torres",
			"email_address": "arthur@example.com",
			"strengths":     asArgs(strengths.Themes),
		},
	})

	assert.Equal(t, "1", res.ID)
	assert.Equal(t, StoreProfile, res.Name)
	assert.Equal(t, true, res.Response["success"])
	assert.Contains(t, res.Response["message"], "successfully")

	require.Len(t, store.stored, 1)
	assert.Equal(t, strengths.Profile{
		FirstName:    "Arthur",
		LastName:     "Torres",
		EmailAddress: "arthur@example.com",
		Strengths:    strengths.Themes,
	}, store.stored[0])
}

func TestDispatchStoreProfileFailure(t *testing.T) {
	store := &fakeStore{putRes: profiles.WriteResult{Message: "Error storing profile: Connection timeout"}}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: StoreProfile, Args: map[string]any{
		"email_address": "jane@example.com",
		"strengths":     asArgs(ranked("S")),
	}})

	assert.Equal(t, false, res.Response["success"])
	assert.Contains(t, res.Response["message"], "Error")
}

func TestDispatchStoreProfileBadArgs(t *testing.T) {
	store := &fakeStore{}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: StoreProfile, Args: map[string]any{
		"strengths": "Achiever",
	}})

	assert.Equal(t, false, res.Response["success"])
	assert.Contains(t, res.Response["message"], "Error storing profile")
	assert.Empty(t, store.stored)
}

func TestDispatchGetProfile(t *testing.T) {
	store := &fakeStore{byName: profiles.LookupResult{
		Success: true,
		Count:   2,
		Message: "Found 2 profile(s) for John Smith",
		Profiles: []strengths.Profile{
			{EmailAddress: "john.smith1@example.com", FirstName: "John", LastName: "Smith", Strengths: ranked("S")},
			{EmailAddress: "john.smith2@example.com", FirstName: "John", LastName: "Smith", Strengths: ranked("T")},
		},
	}}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: GetProfile, Args: map[string]any{
		"first_name": "John",
		"last_name":  "Smith",
	}})

	require.Equal(t, [][2]string{{"John", "Smith"}}, store.nameArgs)
	assert.Equal(t, true, res.Response["success"])
	assert.Equal(t, float64(2), res.Response["count"])

	list, ok := res.Response["profiles"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	var emails []string
	for _, item := range list {
		emails = append(emails, item.(map[string]any)["email_address"].(string))
	}
	assert.ElementsMatch(t, []string{"john.smith1@example.com", "john.smith2@example.com"}, emails)
}

func TestDispatchGetAllProfiles(t *testing.T) {
	store := &fakeStore{all: profiles.LookupResult{Success: true, Message: "Retrieved 0 profile(s) from the database", Profiles: []strengths.Profile{}}}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: GetAllProfiles})

	assert.Equal(t, true, res.Response["success"])
	assert.Equal(t, []any{}, res.Response["profiles"])
}

func TestDispatchCompareProfiles(t *testing.T) {
	r := New(&fakeStore{}, zap.NewNop())

	target := ranked("S")
	swapped := append([]string(nil), target...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: CompareProfiles, Args: map[string]any{
		"target_profile": map[string]any{
			"first_name": "Alice",
			"last_name":  "Smith",
			"strengths":  asArgs(target),
		},
		"other_profiles": []any{
			map[string]any{"first_name": "Swap", "email_address": "swap@example.com", "strengths": asArgs(swapped)},
			map[string]any{"first_name": "Same", "email_address": "same@example.com", "strengths": asArgs(target)},
			map[string]any{"first_name": "Short", "email_address": "short@example.com", "strengths": []any{"S1"}},
		},
	}})

	require.Equal(t, true, res.Response["success"], res.Response["message"])
	assert.Equal(t, "Alice Smith", res.Response["target"])
	assert.Equal(t, "Compared 2 profile(s) against Alice Smith", res.Response["message"])

	comparisons, ok := res.Response["comparisons"].([]any)
	require.True(t, ok)
	require.Len(t, comparisons, 2)

	first := comparisons[0].(map[string]any)
	second := comparisons[1].(map[string]any)
	assert.Equal(t, "same@example.com", first["email_address"])
	assert.Equal(t, float64(0), first["similarity_score"])
	assert.Equal(t, "swap@example.com", second["email_address"])
	assert.Equal(t, float64(2), second["similarity_score"])
}

func TestDispatchCompareProfilesMissingTarget(t *testing.T) {
	r := New(&fakeStore{}, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: CompareProfiles, Args: map[string]any{
		"target_profile": map[string]any{"first_name": "Alice"},
		"other_profiles": []any{},
	}})

	assert.Equal(t, false, res.Response["success"])
	assert.Equal(t, "Target profile must include 'strengths' list", res.Response["message"])
}

func TestDispatchCompareProfilesMalformedCandidate(t *testing.T) {
	r := New(&fakeStore{}, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: CompareProfiles, Args: map[string]any{
		"target_profile": map[string]any{"strengths": asArgs(ranked("S"))},
		"other_profiles": []any{map[string]any{"strengths": []any{1, 2, 3}}},
	}})

	assert.Equal(t, false, res.Response["success"])
	assert.Contains(t, res.Response["message"], "Error comparing profiles:")
}

func TestDispatchCompareProfileToTeam(t *testing.T) {
	alice := strengths.Profile{EmailAddress: "alice@example.com", FirstName: "Alice", LastName: "Smith", Strengths: ranked("S")}
	bob := strengths.Profile{EmailAddress: "bob@example.com", FirstName: "Bob", LastName: "Jones", Strengths: ranked("S")}

	store := &fakeStore{
		byEmail: profiles.LookupResult{Success: true, Count: 1, Profiles: []strengths.Profile{alice}},
		all:     profiles.LookupResult{Success: true, Count: 2, Profiles: []strengths.Profile{alice, bob}},
	}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: CompareProfileToTeam, Args: map[string]any{
		"email_address": "alice@example.com",
	}})

	require.Equal(t, true, res.Response["success"], res.Response["message"])
	assert.Equal(t, "alice@example.com", res.Response["target_email"])
	assert.Equal(t, "Alice Smith", res.Response["target"])

	comparisons := res.Response["comparisons"].([]any)
	require.Len(t, comparisons, 1)
	assert.Equal(t, "bob@example.com", comparisons[0].(map[string]any)["email_address"])
}

func TestDispatchCompareProfileToTeamUnknownTarget(t *testing.T) {
	store := &fakeStore{byEmail: profiles.LookupResult{Success: true, Message: "No profile found for ghost@example.com"}}
	r := New(store, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{Name: CompareProfileToTeam, Args: map[string]any{
		"email_address": "ghost@example.com",
	}})

	assert.Equal(t, false, res.Response["success"])
	assert.Equal(t, "No profile found for ghost@example.com", res.Response["message"])
}

func TestDispatchUnknownTool(t *testing.T) {
	r := New(&fakeStore{}, zap.NewNop())

	res := r.Dispatch(context.Background(), agent.ToolCall{ID: "9", Name: "delete_everything"})

	assert.Equal(t, "9", res.ID)
	assert.Equal(t, false, res.Response["success"])
	assert.Equal(t, "Unknown tool: delete_everything", res.Response["message"])
}
