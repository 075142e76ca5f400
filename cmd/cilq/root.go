// Command cilq indexes SELinux CIL policy modules into a persistent store
// and answers structured queries over the result: type-enforcement rule
// search, typeattributeset listing, attribute resolution, and from-diff
// comparison of a candidate file's TE and type-transition rules.
package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cici0602/cilq/cilcfg"
)

type rootFlags struct {
	verbose          bool
	configPath       string
	storeDSN         string
	storeLockTimeout time.Duration
	metrics          bool
}

// NewRootCmd wires cilq's single root command: refreshing the store from
// the given FILES, then (depending on which query flag is set) running at
// most one search and printing its results, one per line: TE and attr
// matches as file:string, from-diff results prefixed with their outcome,
// and resolveattr symbols bare.
func NewRootCmd(log *logrus.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "cilq [flags] FILES...",
		Short: "Index and query SELinux CIL policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, cmd.Flags())
			if err != nil {
				return err
			}
			if flags.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return runQuery(cmd, log, cfg, args)
		},
	}

	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to cilq.yaml (default: $CILQ_CONFIG or ./cilq.yaml)")
	cmd.Flags().StringVar(&flags.storeDSN, "store-dsn", "", "Postgres connection string")
	cmd.Flags().DurationVar(&flags.storeLockTimeout, "store-lock-timeout", 0, "max time to wait for a file's write lock")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "dump Prometheus metrics to stderr after running")

	addQueryFlags(cmd)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func loadConfig(flags *rootFlags, fs *pflag.FlagSet) (cilcfg.Config, error) {
	cfg, err := cilcfg.Load(flags.configPath, fs)
	if err != nil {
		return cilcfg.Config{}, err
	}
	if flags.storeDSN != "" {
		cfg.StoreDSN = flags.storeDSN
	}
	if flags.storeLockTimeout > 0 {
		cfg.StoreLockTimeout = flags.storeLockTimeout
	}
	return cfg, nil
}
