package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "strengths-agent"
)

var (
	// Used for flags.
	cfgFile string
	envFile string

	conf = viper.New()

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "strengths-agent stores CliftonStrengths profiles in DynamoDB and answers questions about them",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is strengths-agent.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	if err := conf.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := conf.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}

	setDefaults(conf)
}

func initConfig() error {
	if err := loadDotEnv(envFile); err != nil {
		return err
	}
	if err := bindEnv(conf); err != nil {
		return err
	}
	return readConfig(conf, cfgFile)
}
