package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

const app = "hireflow"

var (
	// Used for flags.
	cfgFile  string
	logLevel string
	jsonLogs bool

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "hireflow extracts resume profiles and ranks candidates against jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			format := cfg.Logging.Format
			if jsonLogs {
				format = "json"
			}
			logx.Configure(format, logx.ParseLevel(level))
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")

	rootCmd.AddCommand(extractCmd, rankCandidatesCmd, rankJobsCmd, syncCmd, workerCmd)
}

func main() {
	defer logx.Sync()

	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints domain errors with their code and details; anything
// else is printed as a plain internal error.
func reportError(w io.Writer, err error) {
	var e *errx.Error
	if errors.As(err, &e) {
		_ = writeJSON(w, e.ToHTTPResponse())
		return
	}
	logx.Errorf("Command failed: %v", err)
	fmt.Fprintf(w, "error: %v\n", err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
