package main

import (
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "lvmexn",
	Short:   "Inspect and exercise the Lazy VM exception subsystem",
	Version: version + " (" + commit + ", " + date + ")",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return processGlobalFlags()
	},
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lvmexn.yaml)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.Int("failure-status", 2, "Exit status for uncaught exceptions")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringP("output", "o", "", "Output format (json, text)")
	viper.BindPFlag("no-color", pf.Lookup("no-color"))
	viper.BindPFlag("failure-status", pf.Lookup("failure-status"))
	viper.BindPFlag("log-level", pf.Lookup("log-level"))
	viper.BindPFlag("output", pf.Lookup("output"))
	rootCmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(tagsCmd, raiseCmd, watchCmd)
}

func initConfig() {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			fatal(err)
		}
		viper.SetConfigFile(path)
	} else if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lvmexn")
	}
	viper.SetEnvPrefix("lvm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil && cfgFile != "" {
		log := logger()
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
