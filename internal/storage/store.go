// Package storage keeps a journal of lobby sessions and race results in
// postgres.
package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	UpdateSession(ctx context.Context, id string, fields map[string]any) error
	AddRaceResult(ctx context.Context, r *RaceResult) error
}

type GormStore struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the journal tables.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	if err := db.AutoMigrate(&Session{}, &RaceResult{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateSession(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *GormStore) UpdateSession(ctx context.Context, id string, fields map[string]any) error {
	return s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(fields).Error
}

func (s *GormStore) AddRaceResult(ctx context.Context, r *RaceResult) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
