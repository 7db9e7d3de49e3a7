package relational

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a pooled GORM connection to Postgres, tuning the
// underlying sql.DB pool the same way the teacher's database/connection.go
// tunes its raw database/sql handle.
func Connect(host, port, dbname, user, password string) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("relational: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("relational: underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("relational: ping: %w", err)
	}

	log.Println("✅ Postgres connection established")

	return db, nil
}

// InitSchema auto-migrates every fundamentals model, creating tables that
// don't yet exist. Safe to call on every process start.
func InitSchema(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Stock{},
		&CompanyOverview{},
		&IncomeStatement{},
		&BalanceSheet{},
		&CashFlow{},
		&NewsArticle{},
		&NewsStock{},
		&DailyPrice{},
	)
	if err != nil {
		return fmt.Errorf("relational: auto migrate: %w", err)
	}
	return nil
}
