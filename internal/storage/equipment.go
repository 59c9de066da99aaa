package storage

import (
	"context"

	"gorm.io/gorm/clause"

	"zengo/internal/models"
)

// index is a reserved word, so let the dialect quote it.
var byIndex = clause.OrderByColumn{Column: clause.Column{Name: "index"}}

func (s *Store) GetWeapon(ctx context.Context, index uint64) (*models.Weapon, error) {
	return take[models.Weapon](ctx, s.db, "get weapon", index)
}

func (s *Store) ListWeapons(ctx context.Context, userID uint64) ([]models.Weapon, error) {
	weapons := []models.Weapon{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order(byIndex).Find(&weapons).Error; err != nil {
		return nil, wrapErr("list weapons", err)
	}
	return weapons, nil
}

// UpsertWeapon writes by Index. A zero Index inserts a new weapon and the
// assigned Index is written back to weapon. Callers changing an owned weapon
// must fetch it first and keep its Index, otherwise they add a duplicate.
func (s *Store) UpsertWeapon(ctx context.Context, weapon *models.Weapon) (int64, error) {
	if err := upsert(ctx, s.db, "upsert weapon", weapon); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Store) GetArmor(ctx context.Context, index uint64) (*models.Armor, error) {
	return take[models.Armor](ctx, s.db, "get armor", index)
}

func (s *Store) ListArmors(ctx context.Context, userID uint64) ([]models.Armor, error) {
	armors := []models.Armor{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order(byIndex).Find(&armors).Error; err != nil {
		return nil, wrapErr("list armors", err)
	}
	return armors, nil
}

// UpsertArmor follows the same Index rules as UpsertWeapon.
func (s *Store) UpsertArmor(ctx context.Context, armor *models.Armor) (int64, error) {
	if err := upsert(ctx, s.db, "upsert armor", armor); err != nil {
		return 0, err
	}
	return 1, nil
}
