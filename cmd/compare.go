package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/strengths-agent/internal/profiles"
	"github.com/spigell/strengths-agent/internal/strengths"
	"github.com/spigell/strengths-agent/internal/tools"
)

var errAmbiguousTarget = errors.New("several profiles match the name")

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank the team by similarity to one profile",
	Long: "Rank every stored profile by similarity to a target profile. The score is the sum of " +
		"rank differences over the target's 34 themes. Lower is more similar.",
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("email", "", "email address of the target profile")
	compareCmd.Flags().String("first-name", "", "first name of the target profile")
	compareCmd.Flags().String("last-name", "", "last name of the target profile")
	compareCmd.Flags().BoolP("interactive", "i", false, "choose the target when several profiles share the name")

	compareCmd.MarkFlagsRequiredTogether("first-name", "last-name")
	compareCmd.MarkFlagsOneRequired("email", "first-name")
	compareCmd.MarkFlagsMutuallyExclusive("email", "first-name")
}

type nameLookup interface {
	FindByName(ctx context.Context, firstName, lastName string) profiles.LookupResult
}

type chooser func(candidates []strengths.Profile) (strengths.Profile, error)

func runCompare(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	email, _ := flags.GetString("email")
	first, _ := flags.GetString("first-name")
	last, _ := flags.GetString("last-name")
	interactive, _ := flags.GetBool("interactive")

	s, err := newServices(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	var choose chooser
	if interactive {
		choose = selectProfile
	}

	target, err := resolveTarget(cmd.Context(), s.store, email, first, last, choose)
	if err != nil {
		return err
	}

	return report(cmd.OutOrStdout(), s.call(cmd.Context(), tools.CompareProfileToTeam, map[string]any{
		"email_address": target,
	}))
}

// resolveTarget returns the email of the target profile. A name matching
// several profiles is resolved with choose, or rejected when choose is nil.
func resolveTarget(ctx context.Context, store nameLookup, email, first, last string, choose chooser) (string, error) {
	if email = strings.TrimSpace(email); email != "" {
		return email, nil
	}

	res := store.FindByName(ctx, strings.TrimSpace(first), strings.TrimSpace(last))
	if !res.Success {
		return "", errors.New(res.Message)
	}

	switch len(res.Profiles) {
	case 0:
		return "", errors.New(res.Message)
	case 1:
		return res.Profiles[0].EmailAddress, nil
	}

	if choose == nil {
		emails := make([]string, 0, len(res.Profiles))
		for _, p := range res.Profiles {
			emails = append(emails, p.EmailAddress)
		}
		return "", fmt.Errorf("%w %s %s, use --email with one of: %s",
			errAmbiguousTarget, first, last, strings.Join(emails, ", "))
	}

	picked, err := choose(res.Profiles)
	if err != nil {
		return "", err
	}
	return picked.EmailAddress, nil
}

func selectProfile(candidates []strengths.Profile) (strengths.Profile, error) {
	items := make([]string, 0, len(candidates))
	for _, p := range candidates {
		items = append(items, fmt.Sprintf("%s <%s>", p.FullName(), p.EmailAddress))
	}

	prompt := promptui.Select{
		Label: "Several profiles share this name, choose one and press ENTER",
		Items: items,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return strengths.Profile{}, fmt.Errorf("choosing a profile: %w", err)
	}
	return candidates[i], nil
}
