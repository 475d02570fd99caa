package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/commentera/commentera-api/internal/config"
	"github.com/commentera/commentera-api/internal/db"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
	"github.com/commentera/commentera-api/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed users and badges from the customer config CSV (one-time)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo users from", cfg.Registry.SourcePath)

		if err := seedUsers(cmd.Context(), sqlDB, cfg.Registry.SourcePath); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedUsers creates one demo user per customer row with up to two of the
// customer's badges. Skips entirely when any user already exists.
func seedUsers(ctx context.Context, dbx *sqlx.DB, sourcePath string) error {
	usersRepo := repository.NewUsersRepository(dbx)

	existing, err := usersRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if existing > 0 {
		log.Println(">> Users already exist, skipping seed")
		return nil
	}

	customers, skipped, err := registry.NewCSVSource(sourcePath).Load(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	if skipped > 0 {
		log.Printf(">> Skipped %d malformed rows", skipped)
	}

	tx, err := dbx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	badgesRepo := repository.NewBadgesRepository(dbx)
	for _, c := range customers {
		user := model.User{ID: uuid.New(), CustomerAlias: c.Alias}
		if err := usersRepo.Insert(ctx, tx, user); err != nil {
			return fmt.Errorf("insert user for %q: %w", c.Alias, err)
		}

		badges := c.Badges
		if len(badges) > model.MaxBadgesPerUser {
			badges = badges[:model.MaxBadgesPerUser]
		}
		for _, name := range badges {
			if err := badgesRepo.Insert(ctx, tx, user.ID, name); err != nil {
				return fmt.Errorf("insert badge %q for %q: %w", name, c.Alias, err)
			}
		}
		log.Printf(">> Seeded user %s for customer %s (%d badges)", user.ID, c.Alias, len(badges))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
