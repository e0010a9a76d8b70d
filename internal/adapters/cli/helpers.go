package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/database"
)

// openDatabase connects to the configured database and migrates the schema
func openDatabase() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// resolveSession returns the session flag, falling back to the last session run
// on this machine. "all" selects every session.
func resolveSession(flag string) (string, error) {
	if flag == "all" {
		return "", nil
	}
	if flag != "" {
		return flag, nil
	}
	handler, err := config.NewUserConfigHandler()
	if err != nil {
		return "", err
	}
	userCfg, err := handler.Load()
	if err != nil {
		return "", err
	}
	if userCfg.LastSession == "" {
		return "", fmt.Errorf("no session recorded yet; pass --session or run a session first")
	}
	return userCfg.LastSession, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
