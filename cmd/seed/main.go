package main

import (
	"admin-service/internal/service"
	"admin-service/internal/store"
	"admin-service/pkg/config"
	"admin-service/pkg/database"
	"admin-service/pkg/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := NewCommand(context.Background()).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCommand builds the seed CLI. Flags win over ADMIN_* variables.
func NewCommand(ctx context.Context) *cobra.Command {
	var (
		databaseURL string
		admin       service.AdminAccount
		skipAdmin   bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default permissions, roles, plans and superuser",
		Long: `Seed bootstraps an admin-service database.

The schema is migrated first. Permissions, roles and plans that already
exist are left untouched, so the command can run on every deploy. The
superuser is taken from the flags or from ADMIN_USERNAME, ADMIN_EMAIL and
ADMIN_PASSWORD and is only created when no user with that name exists.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if databaseURL != "" {
				cfg.DB.URL = databaseURL
			}

			log := logger.InitLogger(cfg)
			defer log.Sync() //nolint:errcheck

			if skipAdmin {
				admin = service.AdminAccount{}
			} else {
				fillFromEnv(&admin)
			}

			report, err := seed(ctx, cfg, admin, log)
			if err != nil {
				log.Error("Seed failed", zap.Error(err))
				fmt.Fprintln(cmd.ErrOrStderr(), "seed failed:", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"created %d permission(s), %d role(s), %d plan(s); superuser created: %t\n",
				report.Permissions, report.Roles, report.Plans, report.AdminUser)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&databaseURL, "database-url", "", "database URL, overrides DATABASE_URL")
	flags.StringVar(&admin.Username, "admin-username", "", "superuser name (env ADMIN_USERNAME)")
	flags.StringVar(&admin.Email, "admin-email", "", "superuser email (env ADMIN_EMAIL)")
	flags.StringVar(&admin.Password, "admin-password", "", "superuser password (env ADMIN_PASSWORD)")
	flags.StringVar(&admin.FullName, "admin-full-name", "Administrator", "superuser display name")
	flags.BoolVar(&skipAdmin, "skip-admin", false, "do not create a superuser")

	return cmd
}

func fillFromEnv(admin *service.AdminAccount) {
	if admin.Username == "" {
		admin.Username = os.Getenv("ADMIN_USERNAME")
	}
	if admin.Email == "" {
		admin.Email = os.Getenv("ADMIN_EMAIL")
	}
	if admin.Password == "" {
		admin.Password = os.Getenv("ADMIN_PASSWORD")
	}
}

func seed(ctx context.Context, cfg *config.Config, admin service.AdminAccount, log *zap.Logger) (*service.SeedReport, error) {
	db, err := database.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return service.NewSeeder(store.NewGormStore(db), log).Seed(ctx, admin)
}
