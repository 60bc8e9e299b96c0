// Command quizctl plays a quiz against a running server from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/client"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "quizctl",
	Short:         "Timed AI quiz in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", envOr("QUIZ_SERVER", "http://localhost:5000"), "Quiz server base URL")
	rootCmd.PersistentFlags().String("log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(resultsCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logger.New(os.Stderr, "error", "pretty")
		log.Error().Err(err).Msg("quizctl failed")
		os.Exit(1)
	}
}

// setup builds the API client and logger from the persistent flags.
func setup(cmd *cobra.Command) (*client.Client, zerolog.Logger) {
	server, _ := cmd.Flags().GetString("server")
	level, _ := cmd.Flags().GetString("log-level")
	return client.New(server, nil), logger.New(os.Stderr, level, "pretty")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
