package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/strengths-agent/internal/tools"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Look up profiles by name or email",
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().String("first-name", "", "first name to look up")
	getCmd.Flags().String("last-name", "", "last name to look up")
	getCmd.Flags().String("email", "", "email address to look up")

	getCmd.MarkFlagsRequiredTogether("first-name", "last-name")
	getCmd.MarkFlagsOneRequired("email", "first-name")
	getCmd.MarkFlagsMutuallyExclusive("email", "first-name")
}

func runGet(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	first, _ := flags.GetString("first-name")
	last, _ := flags.GetString("last-name")
	email, _ := flags.GetString("email")

	s, err := newServices(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	if email = strings.TrimSpace(email); email != "" {
		res := s.store.FindByEmail(cmd.Context(), email)
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.Success {
			return errors.New(res.Message)
		}
		return nil
	}

	return report(cmd.OutOrStdout(), s.call(cmd.Context(), tools.GetProfile, map[string]any{
		"first_name": strings.TrimSpace(first),
		"last_name":  strings.TrimSpace(last),
	}))
}
