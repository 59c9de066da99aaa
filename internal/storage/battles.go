package storage

import (
	"context"

	"zengo/internal/models"
)

// GetBattle returns nil when the user has no battle in progress.
func (s *Store) GetBattle(ctx context.Context, userID uint64) (*models.BattleData, error) {
	return take[models.BattleData](ctx, s.db, "get battle", userID)
}

// ListBattles returns every active battle in a channel.
func (s *Store) ListBattles(ctx context.Context, channelID uint64) ([]models.BattleData, error) {
	battles := []models.BattleData{}
	if err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Order("user_id").Find(&battles).Error; err != nil {
		return nil, wrapErr("list battles", err)
	}
	return battles, nil
}

func (s *Store) UpsertBattle(ctx context.Context, battle *models.BattleData) (int64, error) {
	if err := upsert(ctx, s.db, "upsert battle", battle); err != nil {
		return 0, err
	}
	return 1, nil
}

// UpsertBattles writes all battles in one transaction.
func (s *Store) UpsertBattles(ctx context.Context, battles []models.BattleData) (int64, error) {
	if len(battles) == 0 {
		return 0, nil
	}
	err := s.WithTx(ctx, func(tx *Store) error {
		return upsert(ctx, tx.db, "upsert battles", &battles)
	})
	if err != nil {
		return 0, err
	}
	return int64(len(battles)), nil
}

// ClearBattle deletes the user's battle row. Clearing a battle that does not
// exist affects zero rows and is not an error.
func (s *Store) ClearBattle(ctx context.Context, battle *models.BattleData) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.BattleData{}, battle.UserID)
	if res.Error != nil {
		return 0, wrapErr("clear battle", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) ClearBattles(ctx context.Context, battles []models.BattleData) (int64, error) {
	if len(battles) == 0 {
		return 0, nil
	}
	ids := make([]uint64, 0, len(battles))
	for _, b := range battles {
		ids = append(ids, b.UserID)
	}
	res := s.db.WithContext(ctx).Where("user_id IN ?", ids).Delete(&models.BattleData{})
	if res.Error != nil {
		return 0, wrapErr("clear battles", res.Error)
	}
	return res.RowsAffected, nil
}

// ClearChannelBattles deletes every battle in a channel.
func (s *Store) ClearChannelBattles(ctx context.Context, channelID uint64) (int64, error) {
	res := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&models.BattleData{})
	if res.Error != nil {
		return 0, wrapErr("clear channel battles", res.Error)
	}
	return res.RowsAffected, nil
}
