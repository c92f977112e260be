// Command create-admin bootstraps the first admin account. It is idempotent:
// if an admin already exists nothing is written.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/crypto/bcrypt"

	auth_db "ms-ordering/internal/auth/db"
	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	username := getEnvOr("ADMIN_USERNAME", "admin")
	email := strings.ToLower(getEnvOr("ADMIN_EMAIL", "admin@victorypizza.local"))
	password := os.Getenv("ADMIN_PASSWORD")
	name := getEnvOr("ADMIN_NAME", "Administrator")

	if password == "" {
		logger.Fatal("CONFIG", "ADMIN_PASSWORD not set")
	}
	if len(password) < cfg.Auth.MinPasswordLen {
		logger.Fatal("CONFIG", fmt.Sprintf("ADMIN_PASSWORD must be at least %d characters", cfg.Auth.MinPasswordLen))
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	userDB := &auth_db.DB{Bun: bunDB}

	exists, err := userDB.AdminExists()
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to check for existing admin: %v", err))
	}
	if exists {
		logger.Info("APP", "Admin account already exists, nothing to do")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("APP", fmt.Sprintf("Failed to hash password: %v", err))
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Name:         name,
		Active:       true,
	}

	if err := userDB.CreateUser(user); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to create admin account: %v", err))
	}

	logger.Info("APP", fmt.Sprintf("✅ Admin account '%s' created", username))
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
