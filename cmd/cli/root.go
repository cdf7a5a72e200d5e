package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	manifestPath string
	fsHostname   string
	fsUsername   string
	fsPassword   string
	verbose      bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:   "shiny-cli",
	Short: "shiny-cli installs, updates and deletes site packages one request at a time.",
	Long: `A CLI for the update coordinator. Operations are queued and sent to the
site one at a time; filesystem credentials are requested once when needed.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&manifestPath, "manifest", "m", "", "Update manifest (defaults to SITE_MANIFEST)")
	flags.StringVar(&fsHostname, "fs-hostname", "", "Filesystem hostname")
	flags.StringVar(&fsUsername, "fs-username", "", "Filesystem username")
	flags.StringVar(&fsPassword, "fs-password", "", "Filesystem password (or set SITE_FS_PASSWORD)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	for key, flag := range map[string]string{
		"SITE_MANIFEST":    "manifest",
		"SITE_FS_HOSTNAME": "fs-hostname",
		"SITE_FS_USERNAME": "fs-username",
		"SITE_FS_PASSWORD": "fs-password",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			slog.Error("Error binding flag", "flag", flag, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if verbose {
		viper.Set("LOG_LEVEL", "debug")
	}
	// progress goes to stdout; keep the log out of the way
	if os.Getenv("LOG_OUTPUT") == "" {
		viper.Set("LOG_OUTPUT", "stderr")
	}
}
