package commands

import (
	"context"
	"fmt"
	"gradewatch/lib/restyutil"
	"gradewatch/lib/telemetry"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dotenvPath string
	verbose    bool
	httpDump   string
)

var tel telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "gradewatch",
	Short: "gradewatch notifies you when new grades appear on your UIS transcript.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "gradewatch")
		if err != nil {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "gradewatch.json5", "The configuration file, it is optional when the environment is enough.")
	flags.StringVar(&dotenvPath, "env-file", ".env", "A dotenv file loaded into the environment before reading it.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enables debug logging.")
	flags.StringVar(&httpDump, "http-dump", "", "Writes every HTTP request and response to this directory, requires --verbose.")
}

// instrumentOutput is where HTTP message dumps go, nil when dumping is off.
func instrumentOutput() restyutil.InstrumentOutput {
	if httpDump == "" {
		return nil
	}
	output, err := restyutil.NewFilesystemOutput(httpDump)
	if err != nil {
		slog.Warn("failed to create http dump directory, dumps disabled", "dir", httpDump, "err", err)
		return nil
	}
	return output
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if shutdownErr := tel.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
