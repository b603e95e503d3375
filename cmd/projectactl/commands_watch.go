package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tyemirov/projectactl/internal/realtime"
	"go.uber.org/zap"
)

const configCodeMissingWSURL = "config.missing_ws_url"

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream realtime events until interrupted",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			if app.config.WSURL == "" {
				return configError(configCodeMissingWSURL, "ws_url must be provided for watch")
			}

			// Freshen the token first so the replayed identity event carries a
			// credential that will outlive the handshake.
			if _, tokenErr := app.session.Token(command.Context()); tokenErr != nil {
				return tokenErr
			}

			client, clientErr := realtime.New(realtime.Config{
				URL:          app.config.WSURL,
				PingInterval: app.config.PingInterval,
				Logger:       app.logger,
			}, app.session)
			if clientErr != nil {
				return clientErr
			}
			defer client.Close()

			client.OnOpen(func() {
				fmt.Fprintln(command.OutOrStdout(), "connected")
			})
			client.OnClose(func() {
				fmt.Fprintln(command.OutOrStdout(), "disconnected")
			})
			client.OnError(func(err error) {
				app.logger.Warn("realtime error", zap.Error(err))
			})
			client.OnMessage(func(message realtime.Envelope) {
				if message.Type == realtime.PingMessageType || message.Type == "pong" {
					return
				}
				fmt.Fprintf(command.OutOrStdout(), "%s %s\n", message.Type, string(message.Data))
			})

			stopSignals := make(chan os.Signal, 1)
			signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
			<-stopSignals
			return nil
		},
	}
}
