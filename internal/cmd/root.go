package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "studiobuild",
	Short: "Build runner for the LIEStudio web app",
	Long: `studiobuild compiles, bundles and serves the LIEStudio web app.

Tasks such as clean, ts:dist and inject are composed into the serve, build
and compile pipelines. Steps run in order; grouped steps run concurrently.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are printed to stderr unless a
// pipeline already reported them.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./studiobuild.yaml or $HOME/.config/studiobuild/studiobuild.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("studiobuild")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STUDIOBUILD")
	// Replace dots with underscores for nested keys in env vars
	// e.g., STUDIOBUILD_SERVER_PORT for server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// reportedError marks an error the console reporter has already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
