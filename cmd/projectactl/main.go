package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/projectactl/internal/apiclient"
	"github.com/tyemirov/projectactl/internal/authsession"
	"github.com/tyemirov/projectactl/internal/tokenstore"
	"go.uber.org/zap"
)

const (
	configCodeMissingBaseURL        = "config.missing_base_url"
	configCodeInvalidRefreshMargin  = "config.invalid_refresh_margin"
	configCodeInvalidPingInterval   = "config.invalid_ping_interval"
	configCodeCredentialsResolution = "config.credentials_url_resolution"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "projectactl",
		Short:         "Projecta API client with token refresh, request cancellation, and realtime streaming",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("base_url", "", "Projecta API base URL (e.g. https://projecta.example.com/api)")
	rootCmd.PersistentFlags().String("ws_url", "", "Projecta WebSocket URL (e.g. wss://projecta.example.com/ws)")
	rootCmd.PersistentFlags().Duration("refresh_margin", authsession.DefaultRefreshMargin, "Remaining token lifetime that triggers a refresh")
	rootCmd.PersistentFlags().Duration("ping_interval", 5*time.Second, "Keepalive ping cadence for the realtime connection")
	rootCmd.PersistentFlags().String("credentials_url", "", "Credential store URL (sqlite:// or postgres://; defaults to sqlite under the user home)")
	rootCmd.PersistentFlags().String("google_client_id", "", "Google Web OAuth Client ID for validating ID tokens before social login")

	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ws_url", rootCmd.PersistentFlags().Lookup("ws_url"))
	_ = viper.BindPFlag("refresh_margin", rootCmd.PersistentFlags().Lookup("refresh_margin"))
	_ = viper.BindPFlag("ping_interval", rootCmd.PersistentFlags().Lookup("ping_interval"))
	_ = viper.BindPFlag("credentials_url", rootCmd.PersistentFlags().Lookup("credentials_url"))
	_ = viper.BindPFlag("google_client_id", rootCmd.PersistentFlags().Lookup("google_client_id"))

	viper.SetEnvPrefix("PROJECTA")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newLoginCommand(),
		newLoginGoogleCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newProjectCommand(),
		newCategoryCommand(),
		newCostTypeCommand(),
		newExpenseCommand(),
		newPaymentCommand(),
		newAssetCommand(),
		newWatchCommand(),
	)

	return rootCmd
}

type clientConfig struct {
	BaseURL        string
	WSURL          string
	RefreshMargin  time.Duration
	PingInterval   time.Duration
	CredentialsURL string
	GoogleClientID string
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

// LoadClientConfig resolves and validates configuration from flags and the
// PROJECTA_* environment.
func LoadClientConfig() (clientConfig, error) {
	baseURL := strings.TrimSpace(viper.GetString("base_url"))
	if baseURL == "" {
		return clientConfig{}, configError(configCodeMissingBaseURL, "base_url must be provided")
	}

	refreshMargin := viper.GetDuration("refresh_margin")
	if refreshMargin <= 0 {
		return clientConfig{}, configError(configCodeInvalidRefreshMargin, "refresh_margin must be greater than zero")
	}

	pingInterval := viper.GetDuration("ping_interval")
	if pingInterval <= 0 {
		return clientConfig{}, configError(configCodeInvalidPingInterval, "ping_interval must be greater than zero")
	}

	credentialsURL := strings.TrimSpace(viper.GetString("credentials_url"))
	if credentialsURL == "" {
		resolved, resolveErr := defaultCredentialsURL()
		if resolveErr != nil {
			return clientConfig{}, configError(configCodeCredentialsResolution, resolveErr.Error())
		}
		credentialsURL = resolved
	}

	return clientConfig{
		BaseURL:        baseURL,
		WSURL:          strings.TrimSpace(viper.GetString("ws_url")),
		RefreshMargin:  refreshMargin,
		PingInterval:   pingInterval,
		CredentialsURL: credentialsURL,
		GoogleClientID: strings.TrimSpace(viper.GetString("google_client_id")),
	}, nil
}

func defaultCredentialsURL() (string, error) {
	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		return "", homeErr
	}
	stateDir := filepath.Join(homeDir, ".projectactl")
	if mkdirErr := os.MkdirAll(stateDir, 0o700); mkdirErr != nil {
		return "", mkdirErr
	}
	return "sqlite://" + filepath.Join(stateDir, "credentials.db"), nil
}

// appContext bundles the wired client stack for one command invocation.
type appContext struct {
	logger  *zap.Logger
	config  clientConfig
	store   tokenstore.Store
	session *authsession.Session
	api     *apiclient.Client
}

func newAppContext(ctx context.Context) (*appContext, error) {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return nil, loggerErr
	}

	configuration, configErr := LoadClientConfig()
	if configErr != nil {
		return nil, configErr
	}

	store, storeErr := tokenstore.NewDatabaseStore(ctx, configuration.CredentialsURL)
	if storeErr != nil {
		return nil, storeErr
	}

	session, sessionErr := authsession.New(authsession.Config{
		BaseURL:       configuration.BaseURL,
		RefreshMargin: configuration.RefreshMargin,
		HTTPClient:    http.DefaultClient,
		Logger:        logger,
	}, store)
	if sessionErr != nil {
		return nil, sessionErr
	}

	api, apiErr := apiclient.New(apiclient.Config{
		BaseURL: configuration.BaseURL,
		Logger:  logger,
	}, session)
	if apiErr != nil {
		return nil, apiErr
	}

	return &appContext{
		logger:  logger,
		config:  configuration,
		store:   store,
		session: session,
		api:     api,
	}, nil
}

func (app *appContext) close() {
	app.api.Close()
	_ = app.logger.Sync()
}
