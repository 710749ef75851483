package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/bookstore-server/internal/app"
	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/config"
	"github.com/vovakirdan/bookstore-server/internal/log"
	"github.com/vovakirdan/bookstore-server/internal/store"
	"github.com/vovakirdan/bookstore-server/internal/store/sqlite"
)

type rootFlags struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "bookstore-server",
		Short:         "Bookstore account and direct messaging server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.addr, "addr", "", "HTTP listen address")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP and realtime server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		newTokenCmd(flags),
		newPromoteCmd(flags),
	)

	return root
}

// loadConfig resolves configuration and applies command-line overrides on top.
func loadConfig(flags *rootFlags) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info", isatty.IsTerminal(os.Stdout.Fd()))

	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg.UpdateFrom(config.Config{Addr: flags.addr, LogLevel: flags.logLevel})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger := log.New(cfg.LogLevel, isatty.IsTerminal(os.Stdout.Fd()))
	logger.Debug().Str("config_path", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func runServe(ctx context.Context, flags *rootFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting bookstore server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newTokenCmd(flags *rootFlags) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.GetUserByID(cmd.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("user %d not found", userID)
				}
				return err
			}

			token, err := auth.NewService(st, app.JWTConfig(&cfg)).IssueToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func newPromoteCmd(flags *rootFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.GetUserByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("user %s not found", email)
				}
				return err
			}
			if err := st.SetRole(cmd.Context(), user.ID, store.RoleAdmin); err != nil {
				return err
			}

			logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user promoted to admin")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
