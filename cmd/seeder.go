package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedClear bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with demo users and permissions for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := setup()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, db, err := initDB(cfg.Database, cfg.Server.Env)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		if seedClear {
			clearData(db)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{auth.PermissionAdmin, "full administrator"},
			{auth.PermissionFinance, "finance team member"},
			{auth.PermissionViewAllSheets, "Can view every employee's sheets"},
			{auth.PermissionReviewSheets, "Can verify, approve and reject sheets"},
			{auth.PermissionPaySheets, "Can record payments"},
			{auth.PermissionManageAdvances, "Can approve, reject and pay advance requests"},
		}
		for _, p := range permissions {
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now()) ON CONFLICT (name) DO NOTHING", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}

		users := []struct {
			Email       string
			Name        string
			EmpID       string
			Department  string
			Role        auth.Role
			Permissions []string
		}{
			{"asha@mail.com", "Asha Rao", "EMP-001", "Projects", auth.RoleEmployee, nil},
			{"vikram@mail.com", "Vikram Shah", "EMP-002", "Site Operations", auth.RoleEmployee, nil},
			{"finance@mail.com", "Meera Finance", "FIN-001", "Finance", auth.RoleFinance, []string{
				auth.PermissionFinance,
				auth.PermissionViewAllSheets,
				auth.PermissionReviewSheets,
				auth.PermissionPaySheets,
				auth.PermissionManageAdvances,
			}},
			{"admin@mail.com", "Padil Admin", "ADM-001", "Administration", auth.RoleAdmin, []string{auth.PermissionAdmin}},
		}

		for _, u := range users {
			if err := db.Exec(`INSERT INTO users (email, name, password_hash, emp_id, department, role, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, true, now(), now()) ON CONFLICT (email) DO NOTHING`,
				u.Email, u.Name, string(hash), u.EmpID, u.Department, string(u.Role)).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}

			var userID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup user id for %s: %v", u.Email, err)
			}

			for _, name := range u.Permissions {
				if err := db.Exec(`INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at)
					SELECT ?, id, NULL, now() FROM permissions WHERE name = ?
					ON CONFLICT (user_id, permission_id) DO NOTHING`, userID, name).Error; err != nil {
					log.Fatalf("failed to grant permission %s to %s: %v", name, u.Email, err)
				}
			}
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}

		fmt.Println("Seed complete. Every demo user signs in with password \"password\".")
	},
}

func clearData(db *gorm.DB) {
	tables := []string{
		"audit_logs",
		"payouts",
		"advance_requests",
		"expense_items",
		"expense_sheets",
		"sheet_counters",
		"user_permissions",
		"permissions",
		"users",
	}
	for _, t := range tables {
		if err := db.Exec("TRUNCATE TABLE " + t + " RESTART IDENTITY CASCADE").Error; err != nil {
			log.Fatalf("failed to clear %s: %v", t, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "truncate every table before seeding")
}
