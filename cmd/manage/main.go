// Command manage runs maintenance tasks against the portal database.
//
//	manage create-admin -email admin@example.com -password secret123 [-name "Board Admin"]
//	manage reset [-yes]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/config"
	"hoa-backend/internal/database"
	"hoa-backend/internal/db"
	"hoa-backend/migrations"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// data tables cleared by reset. users is emptied with DELETE because
// TRUNCATE ... CASCADE would also clear system_settings.
var resetTables = []string{
	"online_transactions",
	"login_logs",
	"admin_action_logs",
	"expenses",
	"cameras",
	"announcements",
	"visitors",
	"amenity_reservations",
	"project_contributions",
	"projects",
	"payments",
	"dues",
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: manage <create-admin|reset> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	utils.InitLogger("hoa-manage")
	cfg := config.Load()

	switch os.Args[1] {
	case "create-admin":
		createAdmin(cfg, os.Args[2:])
	case "reset":
		reset(cfg, os.Args[2:])
	default:
		usage()
	}
}

func connect(cfg *config.Config) (*pgxpool.Pool, context.Context, context.CancelFunc) {
	pool := db.Connect(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := database.NewMigratorWithFS(pool, migrations.FS).RunMigrations(ctx); err != nil {
		utils.Logger.Fatalf("Failed to run migrations: %v", err)
	}
	return pool, ctx, cancel
}

// createAdmin inserts an active admin, or promotes and re-passwords an
// existing account with the same email.
func createAdmin(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (min 8 characters)")
	name := fs.String("name", "Administrator", "display name")
	_ = fs.Parse(args)

	if *email == "" || len(*password) < auth.MinPasswordLength {
		fmt.Fprintln(os.Stderr, "create-admin needs -email and a -password of at least 8 characters")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		utils.Logger.Fatalf("Failed to hash password: %v", err)
	}

	pool, ctx, cancel := connect(cfg)
	defer pool.Close()
	defer cancel()

	var id int
	err = pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, status)
		VALUES ($1, $2, $3, 'admin', 'active')
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, role = 'admin', status = 'active', updated_at = NOW()
		RETURNING id`,
		*name, strings.ToLower(strings.TrimSpace(*email)), hash,
	).Scan(&id)
	if err != nil {
		utils.Logger.Fatalf("Failed to create admin: %v", err)
	}
	utils.Logger.Infof("Admin %s ready (id %d)", *email, id)
}

func reset(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)

	if !*yes {
		fmt.Printf("This deletes every user, due, payment and log in %q. Type 'yes' to confirm: ", cfg.Database.Name)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	pool, ctx, cancel := connect(cfg)
	defer pool.Close()
	defer cancel()

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE system_settings SET updated_by_user_id = NULL`); err != nil {
			return err
		}
		for _, table := range resetTables {
			if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
			utils.Logger.Infof("Cleared %s", table)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `ALTER SEQUENCE users_id_seq RESTART WITH 1`); err != nil {
			return err
		}
		utils.Logger.Info("Cleared users")
		return nil
	})
	if err != nil {
		utils.Logger.Fatalf("Reset failed: %v", err)
	}
	utils.Logger.Info("Database reset. Run create-admin to add the first administrator.")
}
