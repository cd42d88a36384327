package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title                       Library Catalog API
// @version                     1.0
// @description                 Books and members catalog with a cache-augmented query path.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal("application exited. check logs for more details. ", err)
	}
}

func newRootCommand() *cobra.Command {
	var configFile, envFile string

	root := &cobra.Command{
		Use:           "library-catalog",
		Short:         "Library catalog api with a cache-augmented query path",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", GitTag, GitCommit, BuildTime),
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yml", "path to the yaml configuration file")
	root.PersistentFlags().StringVarP(&envFile, "env", "e", "config.env", "path to the optional environment file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the api server and the cache invalidation consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(configFile, envFile)
			if err != nil {
				return fmt.Errorf("application failed to initialized: %w", err)
			}
			return app.Run()
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := NewBase(configFile, envFile)
			if err != nil {
				return err
			}
			defer b.Clean()
			if err = b.store.Migrate(cmd.Context()); err != nil {
				b.logger.Error("migrate: failed to apply schema", zap.Error(err))
				return err
			}
			b.logger.Info("migrate: schema applied", zap.String("database.driver", b.config.Database.Driver))
			return nil
		},
	}

	var seedFile string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load reference authors and categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := LoadSeedFile(seedFile)
			if err != nil {
				return err
			}
			b, err := NewBase(configFile, envFile)
			if err != nil {
				return err
			}
			defer b.Clean()
			if err = b.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err = Seed(cmd.Context(), b.logger, b.store, data); err != nil {
				b.logger.Error("seed: failed to load data", zap.Error(err))
				return err
			}
			return nil
		},
	}
	seed.Flags().StringVarP(&seedFile, "file", "f", "seed.yml", "path to the yaml seed file")

	var (
		subject string
		roles   []string
		ttl     time.Duration
	)
	token := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token with the configured key for local use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := LoadAndInitConfigs(configFile, envFile, GitCommit, GitTag, BuildTime)
			if err != nil {
				return err
			}
			if !config.Auth.Enabled {
				return fmt.Errorf("authentication is disabled in %s", configFile)
			}
			signed, err := NewAccessToken(&config.Auth, subject, roles, NewClock(config.IsProduction).Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	token.Flags().StringVarP(&subject, "subject", "s", "local", "token subject")
	token.Flags().StringSliceVarP(&roles, "roles", "r", []string{RoleUser}, "granted roles: Admin, Librarian, User")
	token.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	root.AddCommand(serve, migrate, seed, token)
	root.SetContext(context.Background())
	return root
}
