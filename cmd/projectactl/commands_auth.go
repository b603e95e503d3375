package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/idtoken"
)

const googleProvider = "GOOGLE"

var errMissingIDToken = errors.New("login_google.missing_id_token")

func newLoginCommand() *cobra.Command {
	var username string
	var password string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with username and password",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			if _, loginErr := app.session.Login(command.Context(), username, password); loginErr != nil {
				return loginErr
			}
			claims, claimsErr := app.session.Claims(command.Context())
			if claimsErr != nil {
				fmt.Fprintln(command.OutOrStdout(), "logged in")
				return nil
			}
			fmt.Fprintf(command.OutOrStdout(), "logged in as %s\n", claims.GetUserID())
			return nil
		},
	}

	loginCmd.Flags().StringVar(&username, "username", "", "Account identifier")
	loginCmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")
	return loginCmd
}

func newLoginGoogleCommand() *cobra.Command {
	var googleIDToken string

	loginGoogleCmd := &cobra.Command{
		Use:   "login-google",
		Short: "Authenticate with a Google ID token",
		RunE: func(command *cobra.Command, arguments []string) error {
			if googleIDToken == "" {
				return errMissingIDToken
			}
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			// When a client id is configured, reject tokens minted for another
			// audience before they ever reach the API.
			if app.config.GoogleClientID != "" {
				validator, validatorErr := idtoken.NewValidator(command.Context())
				if validatorErr != nil {
					return fmt.Errorf("login_google.validator_init: %w", validatorErr)
				}
				if _, validateErr := validator.Validate(command.Context(), googleIDToken, app.config.GoogleClientID); validateErr != nil {
					return fmt.Errorf("login_google.invalid_token: %w", validateErr)
				}
			}

			if _, loginErr := app.session.LoginSocial(command.Context(), googleIDToken, googleProvider); loginErr != nil {
				return loginErr
			}
			fmt.Fprintln(command.OutOrStdout(), "logged in")
			return nil
		},
	}

	loginGoogleCmd.Flags().StringVar(&googleIDToken, "id-token", "", "Google ID token obtained from the sign-in flow")
	_ = loginGoogleCmd.MarkFlagRequired("id-token")
	return loginGoogleCmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored credential",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			if logoutErr := app.session.Logout(command.Context()); logoutErr != nil {
				return logoutErr
			}
			fmt.Fprintln(command.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session identity",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			if !app.session.IsAuthenticated(command.Context()) {
				fmt.Fprintln(command.OutOrStdout(), "not authenticated")
				return nil
			}
			claims, claimsErr := app.session.Claims(command.Context())
			if claimsErr != nil {
				return claimsErr
			}
			fmt.Fprintf(command.OutOrStdout(), "subject: %s\n", claims.GetUserID())
			if claims.DisplayName != "" {
				fmt.Fprintf(command.OutOrStdout(), "display: %s\n", claims.DisplayName)
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(command.OutOrStdout(), "expires: %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}
