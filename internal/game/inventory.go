package game

import (
	"context"

	"zengo/internal/models"
	"zengo/internal/storage"
)

// GrantItem adds quantity to the user's stack of itemID and returns the stack
// as it stands after the grant.
func (s *Service) GrantItem(ctx context.Context, userID uint64, itemID, quantity int) (*models.Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var item *models.Item
	err := s.store.WithTx(ctx, func(tx *storage.Store) error {
		if _, err := tx.AddItemQuantity(ctx, userID, itemID, quantity); err != nil {
			return err
		}
		var err error
		item, err = tx.GetItem(ctx, userID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GrantWeapon gives the user a new weapon. Equipping it unequips the others,
// each updated in place by its Index.
func (s *Service) GrantWeapon(ctx context.Context, userID uint64, kind, power int, equip bool) (*models.Weapon, error) {
	weapon := &models.Weapon{UserID: userID, Kind: kind, Power: power, Equipped: equip}

	err := s.store.WithTx(ctx, func(tx *storage.Store) error {
		if equip {
			owned, err := tx.ListWeapons(ctx, userID)
			if err != nil {
				return err
			}
			for i := range owned {
				if !owned[i].Equipped {
					continue
				}
				owned[i].Equipped = false
				if _, err := tx.UpsertWeapon(ctx, &owned[i]); err != nil {
					return err
				}
			}
		}
		_, err := tx.UpsertWeapon(ctx, weapon)
		return err
	})
	if err != nil {
		return nil, err
	}
	return weapon, nil
}

// GrantArmor mirrors GrantWeapon for armor.
func (s *Service) GrantArmor(ctx context.Context, userID uint64, kind, defense int, equip bool) (*models.Armor, error) {
	armor := &models.Armor{UserID: userID, Kind: kind, Defense: defense, Equipped: equip}

	err := s.store.WithTx(ctx, func(tx *storage.Store) error {
		if equip {
			owned, err := tx.ListArmors(ctx, userID)
			if err != nil {
				return err
			}
			for i := range owned {
				if !owned[i].Equipped {
					continue
				}
				owned[i].Equipped = false
				if _, err := tx.UpsertArmor(ctx, &owned[i]); err != nil {
					return err
				}
			}
		}
		_, err := tx.UpsertArmor(ctx, armor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return armor, nil
}
