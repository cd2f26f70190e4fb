package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/strengths-agent/internal/tools"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newServices(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return report(cmd.OutOrStdout(), s.call(cmd.Context(), tools.GetAllProfiles, nil))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
