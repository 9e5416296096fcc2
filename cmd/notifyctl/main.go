// notifyctl is an operator CLI for the notify deployment: it verifies
// launch-data blobs offline and fires test messages through the bot.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapline-games/miniapp-notify/internal/initdata"
	"github.com/tapline-games/miniapp-notify/internal/telegram"
)

var (
	botToken string
	maxAge   time.Duration
	baseURL  string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "notifyctl",
	Short: "Mini-app notify operations CLI",
	Long: `notifyctl pokes at a miniapp-notify deployment from the terminal.

Verify a launch-data blob against the bot token, or send a test message
to any chat through the Bot API.`,
	Version: "0.1.0",
}

var verifyCmd = &cobra.Command{
	Use:   "verify <init-data>",
	Short: "Verify a launch-data blob against the bot token",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var sendCmd = &cobra.Command{
	Use:   "send <chat-id> <text>",
	Short: "Send a test message to a chat",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&botToken, "token", "", "bot token (default: $NOTIFY_TELEGRAM_BOT_TOKEN)")

	verifyCmd.Flags().DurationVar(&maxAge, "max-age", 0, "reject payloads with auth_date older than this (0 disables)")

	sendCmd.Flags().StringVar(&baseURL, "api-base-url", telegram.DefaultBaseURL, "Bot API origin")
	sendCmd.Flags().DurationVar(&timeout, "timeout", telegram.DefaultTimeout, "per-call timeout")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(sendCmd)
}

func resolveToken() (string, error) {
	if botToken != "" {
		return botToken, nil
	}
	if env := os.Getenv("NOTIFY_TELEGRAM_BOT_TOKEN"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("bot token required: pass --token or set NOTIFY_TELEGRAM_BOT_TOKEN")
}

func runVerify(cmd *cobra.Command, args []string) error {
	token, err := resolveToken()
	if err != nil {
		return err
	}

	fields, claimed := initdata.Parse(args[0])
	fmt.Printf("fields: %d, claimed signature: %q\n", len(fields), claimed)
	fmt.Println(initdata.DataCheckString(fields))

	outcome := initdata.NewVerifier(token, maxAge).Verify(fields, claimed)
	if !outcome.Verified {
		return fmt.Errorf("rejected: %s", outcome.Reason)
	}

	fmt.Printf("verified: user id %d", outcome.User.ID)
	if outcome.User.Username != "" {
		fmt.Printf(" (@%s)", outcome.User.Username)
	}
	fmt.Println()
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	token, err := resolveToken()
	if err != nil {
		return err
	}

	client := telegram.NewClient(token, baseURL, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	attempt := client.Send(ctx, args[0], args[1])
	if !attempt.Succeeded {
		return fmt.Errorf("send failed: %s", attempt.Error)
	}

	fmt.Printf("sent to %s: %s\n", args[0], attempt.Response)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
