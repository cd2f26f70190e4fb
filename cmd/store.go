package cmd

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/strengths-agent/internal/tools"
)

var rankPrefix = regexp.MustCompile(`^\d+\s*[.)]\s*`)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Store or update a profile",
	Long: "Store or update a CliftonStrengths profile. The email address identifies the profile; " +
		"storing again replaces the previous themes.",
	RunE: runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)

	storeCmd.Flags().String("first-name", "", "employee's first name")
	storeCmd.Flags().String("last-name", "", "employee's last name")
	storeCmd.Flags().String("email", "", "employee's email address")
	storeCmd.Flags().StringSlice("strengths", nil, "ranked themes, strongest first (comma separated)")
	storeCmd.Flags().String("strengths-file", "", "file with ranked themes, one per line")

	_ = storeCmd.MarkFlagRequired("email")
	storeCmd.MarkFlagsMutuallyExclusive("strengths", "strengths-file")
}

func runStore(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	first, _ := flags.GetString("first-name")
	last, _ := flags.GetString("last-name")
	email, _ := flags.GetString("email")
	inline, _ := flags.GetStringSlice("strengths")
	file, _ := flags.GetString("strengths-file")

	themes, err := readThemes(inline, file)
	if err != nil {
		return err
	}

	s, err := newServices(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	return report(cmd.OutOrStdout(), s.call(cmd.Context(), tools.StoreProfile, map[string]any{
		"first_name":    strings.TrimSpace(first),
		"last_name":     strings.TrimSpace(last),
		"email_address": strings.TrimSpace(email),
		"strengths":     themes,
	}))
}

// readThemes returns the ranked themes from file or from the inline list.
// Lines may carry a rank prefix such as "1." and blank lines are ignored.
func readThemes(inline []string, file string) ([]string, error) {
	raw := inline
	if file = strings.TrimSpace(file); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading strengths file: %w", err)
		}
		raw = strings.Split(string(data), "\n")
	}

	themes := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			item = strings.TrimSpace(rankPrefix.ReplaceAllString(strings.TrimSpace(item), ""))
			if item != "" {
				themes = append(themes, item)
			}
		}
	}

	if len(themes) == 0 {
		return nil, errors.New("no strengths given, use --strengths or --strengths-file")
	}
	return themes, nil
}
