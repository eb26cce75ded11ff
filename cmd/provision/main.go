package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credentials_service/internal/config"
	"credentials_service/internal/lib/keygen"
	"credentials_service/internal/lib/password"
	"credentials_service/internal/models"
	"credentials_service/internal/storage/postgres"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultTimeout = 30 * time.Second

type provisioner interface {
	SaveUser(ctx context.Context, user models.User) error
	SaveCredential(ctx context.Context, key, ownerID string) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision users and API keys for the credentials service",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "config file path")

	open := func(ctx context.Context) (*postgres.PostgresRepo, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		return postgres.New(ctx, cfg)
	}

	cmd.AddCommand(newUserCmd(open))
	cmd.AddCommand(newKeyCmd(open))

	return cmd
}

type opener func(ctx context.Context) (*postgres.PostgresRepo, error)

func newUserCmd(open opener) *cobra.Command {
	var email, pass string
	var withKey bool

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create a user (and optionally an API key for it)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			repo, err := open(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			user, err := createUser(ctx, repo, email, pass)
			if err != nil {
				return err
			}

			cmd.Printf("user_id: %s\n", user.ID)

			if withKey {
				key, err := createKey(ctx, repo, user.ID)
				if err != nil {
					return err
				}

				cmd.Printf("api_key: %s\n", key)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&pass, "password", "", "user password")
	cmd.Flags().BoolVar(&withKey, "with-key", false, "also create an API key for the user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newKeyCmd(open opener) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create an API key for an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			repo, err := open(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			key, err := createKey(ctx, repo, userID)
			if err != nil {
				return err
			}

			cmd.Printf("api_key: %s\n", key)

			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "owner user id")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func createUser(ctx context.Context, p provisioner, email, pass string) (models.User, error) {
	const op = "provision.createUser"

	hash, err := password.Hash(pass)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}

	if err := p.SaveUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func createKey(ctx context.Context, p provisioner, userID string) (string, error) {
	const op = "provision.createKey"

	key, err := keygen.NewKey()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := p.SaveCredential(ctx, key, userID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return key, nil
}
