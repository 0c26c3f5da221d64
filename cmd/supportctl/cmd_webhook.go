package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"doubtit/support-api/internal/infrastructure/telegram"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Register the webhook with Telegram",
	Long:  `Points the bot at PUBLIC_DOMAIN + TELEGRAM_WEBHOOK_PATH with TELEGRAM_SECRET_TOKEN. Use --url to override the target.`,
	RunE:  runWebhookSet,
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the current webhook registration",
	RunE:  runWebhookInfo,
}

func init() {
	webhookCmd.AddCommand(webhookSetCmd)
	webhookCmd.AddCommand(webhookInfoCmd)

	webhookSetCmd.Flags().String("url", "", "Webhook URL (default: derived from PUBLIC_DOMAIN)")
}

func runWebhookSet(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = cfg.WebhookURL()
	}
	if url == "" {
		return fmt.Errorf("no webhook URL: set PUBLIC_DOMAIN or pass --url")
	}
	if cfg.TelegramSecretToken == "" {
		return fmt.Errorf("TELEGRAM_SECRET_TOKEN must be set; the server rejects unsigned updates")
	}

	client := telegram.NewClient(telegram.Config{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		Timeout: cfg.ChannelTimeout,
	}, log)
	if err := client.SetWebhook(cmd.Context(), url, cfg.TelegramSecretToken); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "webhook registered: %s\n", url)
	return nil
}

func runWebhookInfo(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := telegram.NewClient(telegram.Config{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		Timeout: cfg.ChannelTimeout,
	}, log)
	info, err := client.GetWebhookInfo(cmd.Context())
	if err != nil {
		return err
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	return out.Encode(info)
}
