// Command invctl runs maintenance tasks against the inventory database.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/config"
	"github.com/vgl-spec/soil-sub000/internal/infra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	infra.SetupLogger(cfg.IsProduction(), cfg.LogLevel)

	open := func() (*gorm.DB, error) {
		return infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	}

	if err := newRootCmd(cfg, open).Execute(); err != nil {
		log.Error().Err(err).Msg("invctl failed")
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, open dbOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "invctl",
		Short:         "Inventory service maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(open),
		newSeedUserCmd(cfg, open),
		newHashCmd(cfg),
	)
	return root
}
