package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/buildinfo"
	"github.com/tsukumogami/verse/internal/log"
)

var (
	quietFlag     bool
	verboseFlag   bool
	debugFlag     bool
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "verse",
	Short: "Track the latest upstream releases of open source projects",
	Long: `verse reports the latest released versions of open source projects by
reading their GitHub tags.

For each project it can report the single latest version, the latest
version of every major line, and the latest version of every minor line.
Known projects live in a catalog; any other GitHub repository can be
checked as owner/repo.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := log.ParseFormat(logFormatFlag)
		if err != nil {
			return usageError{err}
		}
		log.SetDefault(log.New(log.NewHandler(os.Stderr, determineLogLevel(), format)))
		return nil
	},
}

// determineLogLevel resolves verbosity from flags first, then VERSE_*
// environment variables. Among flags, debug beats verbose beats quiet.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}

	switch {
	case isTruthy(os.Getenv("VERSE_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("VERSE_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("VERSE_QUIET")):
		return slog.LevelError
	}
	return slog.LevelWarn
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log operational detail")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log internal state for troubleshooting")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "text", "Diagnostic log format (text or json)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(majorCmd)
	rootCmd.AddCommand(minorCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
}
