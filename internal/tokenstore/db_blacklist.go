package tokenstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

// DBBlacklist stores revoked jtis in the blacklisted_tokens table
type DBBlacklist struct {
	db *gorm.DB
}

// NewDBBlacklist creates a database backed blacklist
func NewDBBlacklist(db *gorm.DB) *DBBlacklist {
	return &DBBlacklist{db: db}
}

// Add inserts jti, relying on its unique index for atomicity
func (b *DBBlacklist) Add(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	defer prometheus.TrackDBOperation("blacklist_add")()

	entry := model.BlacklistedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}

	res := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry)
	if res.Error != nil {
		return fmt.Errorf("failed to blacklist token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyBlacklisted
	}
	return nil
}

// Contains reports whether jti is revoked
func (b *DBBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	defer prometheus.TrackDBOperation("blacklist_contains")()

	var count int64
	err := b.db.WithContext(ctx).Model(&model.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return count > 0, nil
}

// PurgeExpired removes entries whose token has expired by now
func (b *DBBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("blacklist_purge")()

	res := b.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.BlacklistedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge blacklist: %w", res.Error)
	}
	return res.RowsAffected, nil
}
