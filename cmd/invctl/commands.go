package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/config"
	"github.com/vgl-spec/soil-sub000/internal/infra"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

type dbOpener func() (*gorm.DB, error)

func newMigrateCmd(open dbOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			if err := infra.RunMigrations(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func newSeedUserCmd(cfg *config.Config, open dbOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create a user, or reset an existing one's email, password and role.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			if username == "" || email == "" || password == "" {
				return errors.New("--username, --email and --password are required")
			}
			switch role {
			case model.RoleSupervisor, model.RoleOperator, model.RoleUser:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			hash, err := service.HashPassword(password, cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			db, err := open()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}

			u := &model.User{Username: username, Email: email, Password: hash, Role: role}
			if err := repository.NewUserRepository(db).UpsertByUsername(cmd.Context(), u); err != nil {
				return fmt.Errorf("upsert user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %q ready with role %s\n", username, role)
			return nil
		},
	}
	cmd.Flags().String("username", "", "login name")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("password", "", "plaintext password, stored as a bcrypt hash")
	cmd.Flags().String("role", model.RoleSupervisor, "supervisor | operator | user")
	return cmd
}

func newHashCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the bcrypt hash of a password.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := service.HashPassword(args[0], cfg.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
