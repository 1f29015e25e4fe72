package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aleksaelezovic/qlgo/internal/config"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// newRootCmd builds the qlgo root command with every subcommand registered.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qlgo",
		Short:         "qlgo — an embedded SPARQL query engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("storage-dir", "", "override storage.dir (badger data directory)")
	root.PersistentFlags().Bool("ignore-case", false, "override vocab.ignoreCase")

	root.AddCommand(
		newDemoCmd(),
		newQueryCmd(),
		newServeCmd(),
		newVocabCmd(),
	)

	return root
}

// resolvedConfig holds the Config initViper resolved for the in-flight
// command invocation, so subcommands' RunE can fetch it via loadConfig
// without re-running Viper's file-discovery and validation on every call.
var resolvedConfig *config.Config

// initViper binds flag overrides into the global Viper instance, then
// delegates to config.Load for defaults, env, config-file discovery,
// unmarshalling, and validation, so flag > env > file > defaults precedence
// holds uniformly across every subcommand.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	if err := v.BindPFlag("storage.dir", cmd.Root().PersistentFlags().Lookup("storage-dir")); err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "binding storage-dir flag")
	}
	if err := v.BindPFlag("vocab.ignoreCase", cmd.Root().PersistentFlags().Lookup("ignore-case")); err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "binding ignore-case flag")
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "loading config")
	}
	resolvedConfig = cfg
	return nil
}

// loadConfig returns the Config initViper already resolved for this
// invocation.
func loadConfig() (*config.Config, error) {
	if resolvedConfig == nil {
		return nil, errs.New(errs.CodeCLIFailure, "config not initialized; PersistentPreRunE did not run")
	}
	return resolvedConfig, nil
}
