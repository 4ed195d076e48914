package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	mongoadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/mongo"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

const commandTimeout = 2 * time.Minute

// env bundles what every subcommand needs to talk to the store.
type env struct {
	cfg    *config.Config
	log    logger.Logger
	client *mongo.Client
	db     *mongo.Database
}

func connect(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.NewZapLogger(logger.ZapLoggerConfig{Level: cfg.Logger.Level, Encoding: "console"})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	client, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB.Database)
	if err := mongoadapter.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &env{cfg: cfg, log: log, client: client, db: db}, nil
}

func (e *env) close(ctx context.Context) {
	_ = e.client.Disconnect(ctx)
	_ = e.log.Sync()
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Operator tooling for the storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config.yaml (falls back to environment)")

	root.AddCommand(newAdminCmd(&configPath), newProductsCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newAdminCmd(configPath *string) *cobra.Command {
	admin := &cobra.Command{Use: "admin", Short: "Manage administrator accounts"}

	var in service.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			e, err := connect(ctx, *configPath)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			auth := service.NewAuthService(
				mongoadapter.NewUserRepository(e.db),
				service.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.TokenTTL),
				e.log, service.AuthServiceConfig{},
			)
			user, err := auth.CreateAdmin(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&in.Name, "name", "", "Display name")
	f.StringVar(&in.Email, "email", "", "Login email")
	f.StringVar(&in.Phone, "phone", "", "Contact phone")
	f.StringVar(&in.Password, "password", "", "Initial password")
	for _, name := range []string{"name", "email", "password"} {
		_ = create.MarkFlagRequired(name)
	}

	admin.AddCommand(create)
	return admin
}

func newProductsCmd(configPath *string) *cobra.Command {
	products := &cobra.Command{Use: "products", Short: "Manage the product catalog"}

	var (
		file   string
		dryRun bool
	)
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create products from a YAML catalog file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := loadCatalog(file)
			if err != nil {
				return err
			}
			if err := validateCatalog(items); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "catalog %s is valid: %d products\n", file, len(items))
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			e, err := connect(ctx, *configPath)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			svc := service.NewProductService(mongoadapter.NewProductRepository(e.db), nil, nil, e.log, service.ProductServiceConfig{})
			for _, item := range items {
				p, err := svc.Create(ctx, item)
				if err != nil {
					return fmt.Errorf("creating %q: %w", item.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
	seed.Flags().StringVar(&file, "file", "catalog.yaml", "Catalog file")
	seed.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")

	products.AddCommand(seed)
	return products
}
