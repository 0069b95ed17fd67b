package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("env-file", "", "Load environment variables from this file (default .env)")
	cmd.PersistentFlags().String("proxy", "", "HTTP/SOCKS5 proxy for the browser; a comma separated list rotates per run (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", DefaultNavTimeout.String(), "Navigation timeout per page")
	cmd.PersistentFlags().String("wait-timeout", DefaultWaitTimeout.String(), "Timeout waiting for page content to appear")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Referer: https://example.com\")")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().String("browser-url", "", "DevTools websocket URL of a running browser to attach to")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("sink", DefaultSink, "Persistence backend: none, memory, postgres, redis or http")
	cmd.PersistentFlags().String("model", DefaultModel, "Model used for model-driven extraction")
}
