package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/brewdesk/pkg/config"
)

// ClientState is one persisted blob row.
type ClientState struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Blob      []byte    `gorm:"type:blob;not null"`
	ExpiresAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (ClientState) TableName() string { return "client_state" }

// SQLRepository keeps client-state blobs in MySQL. Expired rows read as
// missing and are purged by Sweep.
type SQLRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLRepository(cfg *config.MySQLConfig) (*SQLRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return NewSQLRepositoryFromDB(db)
}

// NewSQLRepositoryFromDB migrates the client_state table on db.
func NewSQLRepositoryFromDB(db *gorm.DB) (*SQLRepository, error) {
	if err := db.AutoMigrate(&ClientState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate client_state: %w", err)
	}
	return &SQLRepository{db: db, now: time.Now}, nil
}

func (r *SQLRepository) Put(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	row := ClientState{Key: key, Blob: blob, ExpiresAt: r.now().Add(ttl)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row ClientState
	err := r.db.WithContext(ctx).
		Where("`key` = ? AND expires_at > ?", key, r.now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return row.Blob, true, nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).Delete(&ClientState{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Sweep removes expired rows and reports how many were deleted.
func (r *SQLRepository) Sweep(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", r.now()).Delete(&ClientState{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep client_state: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *SQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
