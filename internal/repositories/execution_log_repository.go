package repositories

import (
	"fmt"
	"log"
	"mongobridge/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ExecutionLogRepository interface {
	Save(entry *models.ExecutionLog) error
	ListRecent(limit int) ([]models.ExecutionLog, error)
}

type executionLogRepository struct {
	db *gorm.DB
}

// NewExecutionLogRepository opens the audit database and ensures the log
// table exists.
func NewExecutionLogRepository(dsn string) (ExecutionLogRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %v", err)
	}

	if err := db.AutoMigrate(&models.ExecutionLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %v", err)
	}

	log.Println("🚀 Initialized Repository : ExecutionLog")
	return &executionLogRepository{db: db}, nil
}

func (r *executionLogRepository) Save(entry *models.ExecutionLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save execution log: %v", err)
	}
	return nil
}

func (r *executionLogRepository) ListRecent(limit int) ([]models.ExecutionLog, error) {
	var entries []models.ExecutionLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %v", err)
	}
	return entries, nil
}
