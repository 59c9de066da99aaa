package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zengo/internal/models"
)

// GetItem looks an item up by the key derived from userID and itemID.
func (s *Store) GetItem(ctx context.Context, userID uint64, itemID int) (*models.Item, error) {
	return s.GetItemByKey(ctx, models.ItemKey(userID, itemID))
}

func (s *Store) GetItemByKey(ctx context.Context, key string) (*models.Item, error) {
	return take[models.Item](ctx, s.db, "get item", "id = ?", key)
}

func (s *Store) GetItemForUpdate(ctx context.Context, userID uint64, itemID int) (*models.Item, error) {
	return take[models.Item](ctx, forUpdate(s.db), "lock item", "id = ?", models.ItemKey(userID, itemID))
}

func (s *Store) ListItems(ctx context.Context, userID uint64) ([]models.Item, error) {
	items := []models.Item{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("item_id").Find(&items).Error; err != nil {
		return nil, wrapErr("list items", err)
	}
	return items, nil
}

// UpsertItem overwrites item.ID with the derived key before writing.
func (s *Store) UpsertItem(ctx context.Context, item *models.Item) (int64, error) {
	item.ID = item.Key()
	if err := upsert(ctx, s.db, "upsert item", item); err != nil {
		return 0, err
	}
	return 1, nil
}

// AddItemQuantity adds delta to the user's stack of itemID, creating the stack
// when it does not exist yet. The sum is computed by the database in the
// upsert itself, so concurrent grants never overwrite each other.
func (s *Store) AddItemQuantity(ctx context.Context, userID uint64, itemID, delta int) (int64, error) {
	item := &models.Item{UserID: userID, ItemID: itemID, Quantity: delta}
	item.ID = item.Key()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("quantity + ?", delta)}),
		}).
		Create(item).Error
	if err != nil {
		return 0, wrapErr("add item quantity", err)
	}
	return 1, nil
}
