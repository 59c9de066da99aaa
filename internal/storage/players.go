package storage

import (
	"context"

	"zengo/internal/models"
)

// GetPlayer returns nil when the user has never been stored.
func (s *Store) GetPlayer(ctx context.Context, userID uint64) (*models.Player, error) {
	return take[models.Player](ctx, s.db, "get player", userID)
}

// EnsurePlayer stores player only if the user has no row yet.
func (s *Store) EnsurePlayer(ctx context.Context, player *models.Player) error {
	return ensure(ctx, s.db, "ensure player", player)
}

func (s *Store) GetPlayerForUpdate(ctx context.Context, userID uint64) (*models.Player, error) {
	return take[models.Player](ctx, forUpdate(s.db), "lock player", userID)
}

// ListPlayers returns the stored players among userIDs, in no particular order.
func (s *Store) ListPlayers(ctx context.Context, userIDs []uint64) ([]models.Player, error) {
	players := []models.Player{}
	if len(userIDs) == 0 {
		return players, nil
	}
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&players).Error; err != nil {
		return nil, wrapErr("list players", err)
	}
	return players, nil
}

// ListPlayersInBattles returns the players behind a set of battle rows.
func (s *Store) ListPlayersInBattles(ctx context.Context, battles []models.BattleData) ([]models.Player, error) {
	ids := make([]uint64, 0, len(battles))
	for _, b := range battles {
		ids = append(ids, b.UserID)
	}
	return s.ListPlayers(ctx, ids)
}

func (s *Store) UpsertPlayer(ctx context.Context, player *models.Player) (int64, error) {
	if err := upsert(ctx, s.db, "upsert player", player); err != nil {
		return 0, err
	}
	return 1, nil
}

// UpsertPlayers writes all players in one transaction: either every row is
// written or none is.
func (s *Store) UpsertPlayers(ctx context.Context, players []models.Player) (int64, error) {
	if len(players) == 0 {
		return 0, nil
	}
	err := s.WithTx(ctx, func(tx *Store) error {
		return upsert(ctx, tx.db, "upsert players", &players)
	})
	if err != nil {
		return 0, err
	}
	return int64(len(players)), nil
}

// PlayersByExp returns players ordered by Exp descending. Equal Exp is
// ordered by UserID ascending so pages stay stable.
func (s *Store) PlayersByExp(ctx context.Context, offset, limit int) ([]models.Player, error) {
	players := []models.Player{}
	err := s.db.WithContext(ctx).
		Order("exp DESC").
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, wrapErr("rank players", err)
	}
	return players, nil
}
