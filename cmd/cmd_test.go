package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/strengths-agent/internal/profiles"
	"github.com/spigell/strengths-agent/internal/strengths"
)

func TestReadThemes(t *testing.T) {
	got, err := readThemes([]string{" Achiever", "Arranger ", ""}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Achiever", "Arranger"}, got)

	path := filepath.Join(t.TempDir(), "themes.txt")
	require.NoError(t, os.WriteFile(path, []byte("1. Strategic\n2) Learner\n\nInput, Ideation\n"), 0o600))

	got, err = readThemes([]string{"ignored"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strategic", "Learner", "Input", "Ideation"}, got)

	_, err = readThemes(nil, "")
	assert.Error(t, err)
}

type fakeLookup struct {
	result profiles.LookupResult
}

func (f fakeLookup) FindByName(context.Context, string, string) profiles.LookupResult {
	return f.result
}

func TestResolveTarget(t *testing.T) {
	arthur := strengths.Profile{FirstName: "Arthur", LastName: "Torres", EmailAddress: "arthur@example.com"}
	other := strengths.Profile{FirstName: "Arthur", LastName: "Torres", EmailAddress: "arthur.t@example.com"}

	ctx := context.Background()

	email, err := resolveTarget(ctx, fakeLookup{}, " direct@example.com ", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "direct@example.com", email)

	single := fakeLookup{result: profiles.LookupResult{Success: true, Count: 1, Profiles: []strengths.Profile{arthur}}}
	email, err = resolveTarget(ctx, single, "", "Arthur", "Torres", nil)
	require.NoError(t, err)
	assert.Equal(t, "arthur@example.com", email)

	none := fakeLookup{result: profiles.LookupResult{Success: true, Message: "No profile found for Arthur Torres", Profiles: []strengths.Profile{}}}
	_, err = resolveTarget(ctx, none, "", "Arthur", "Torres", nil)
	require.EqualError(t, err, "No profile found for Arthur Torres")

	failed := fakeLookup{result: profiles.LookupResult{Message: "Error retrieving profile: boom"}}
	_, err = resolveTarget(ctx, failed, "", "Arthur", "Torres", nil)
	require.EqualError(t, err, "Error retrieving profile: boom")

	both := fakeLookup{result: profiles.LookupResult{Success: true, Count: 2, Profiles: []strengths.Profile{arthur, other}}}
	_, err = resolveTarget(ctx, both, "", "Arthur", "Torres", nil)
	require.ErrorIs(t, err, errAmbiguousTarget)
	assert.Contains(t, err.Error(), "arthur.t@example.com")

	email, err = resolveTarget(ctx, both, "", "Arthur", "Torres", func(c []strengths.Profile) (strengths.Profile, error) {
		return c[1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "arthur.t@example.com", email)
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, report(&out, map[string]any{"success": true, "message": "ok"}))
	assert.Contains(t, out.String(), `"message": "ok"`)

	out.Reset()
	err := report(&out, map[string]any{"success": false, "message": "Error storing profile: denied"})
	require.EqualError(t, err, "Error storing profile: denied")
	assert.Contains(t, out.String(), `"success": false`)
}

type fakeSender struct {
	asked []string
	fail  map[string]error
}

func (f *fakeSender) Send(_ context.Context, text string) (string, error) {
	f.asked = append(f.asked, text)
	if err := f.fail[text]; err != nil {
		return "", err
	}
	return "answer to " + text, nil
}

func lines(input ...string) func() (string, error) {
	return func() (string, error) {
		if len(input) == 0 {
			return "", promptui.ErrEOF
		}
		line := input[0]
		input = input[1:]
		return line, nil
	}
}

func TestChatLoop(t *testing.T) {
	sender := &fakeSender{fail: map[string]error{"broken": errors.New("model unavailable")}}
	var out bytes.Buffer

	err := chatLoop(context.Background(), sender, lines("who is Arthur?", "  ", "broken", "compare us", "QUIT", "never asked"), &out, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"who is Arthur?", "broken", "compare us"}, sender.asked)
	assert.Equal(t, []string{
		"answer to who is Arthur?",
		"Error: model unavailable",
		"answer to compare us",
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
}

func TestChatLoopStopsOnInterrupt(t *testing.T) {
	read := func() (string, error) { return "", promptui.ErrInterrupt }
	assert.NoError(t, chatLoop(context.Background(), &fakeSender{}, read, io.Discard, zap.NewNop()))

	read = func() (string, error) { return "", errors.New("terminal gone") }
	assert.Error(t, chatLoop(context.Background(), &fakeSender{}, read, io.Discard, zap.NewNop()))
}
