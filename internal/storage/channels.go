package storage

import (
	"context"

	"zengo/internal/models"
)

func (s *Store) GetChannel(ctx context.Context, channelID uint64) (*models.ChannelData, error) {
	return take[models.ChannelData](ctx, s.db, "get channel", channelID)
}

// GetChannelForUpdate is GetChannel holding the row lock until the
// transaction ends. Call EnsureChannel first: locking a missing row on MySQL
// takes a gap lock that concurrent inserts deadlock on.
func (s *Store) GetChannelForUpdate(ctx context.Context, channelID uint64) (*models.ChannelData, error) {
	return take[models.ChannelData](ctx, forUpdate(s.db), "lock channel", channelID)
}

// EnsureChannel inserts channel unless a row with its key already exists, in
// which case the stored row is left untouched.
func (s *Store) EnsureChannel(ctx context.Context, channel *models.ChannelData) error {
	return ensure(ctx, s.db, "ensure channel", channel)
}

// ListChannels returns the channels belonging to a guild.
func (s *Store) ListChannels(ctx context.Context, guildID uint64) ([]models.ChannelData, error) {
	channels := []models.ChannelData{}
	if err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("channel_id").Find(&channels).Error; err != nil {
		return nil, wrapErr("list channels", err)
	}
	return channels, nil
}

func (s *Store) UpsertChannel(ctx context.Context, channel *models.ChannelData) (int64, error) {
	if err := upsert(ctx, s.db, "upsert channel", channel); err != nil {
		return 0, err
	}
	return 1, nil
}

// ChannelsByMonsterLevel orders by MonsterLevel descending, then ChannelID ascending.
func (s *Store) ChannelsByMonsterLevel(ctx context.Context, offset, limit int) ([]models.ChannelData, error) {
	channels := []models.ChannelData{}
	err := s.db.WithContext(ctx).
		Order("monster_level DESC").
		Order("channel_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&channels).Error
	if err != nil {
		return nil, wrapErr("rank channels", err)
	}
	return channels, nil
}
