package models

import "strconv"

// Item is a stack of one item kind owned by a user.
//
// ID is derived from UserID and ItemID. The store recomputes it on every
// write, so a caller-supplied ID is never trusted.
type Item struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	UserID   uint64 `gorm:"not null;index" json:"user_id"`
	ItemID   int    `gorm:"not null" json:"item_id"`
	Quantity int    `gorm:"not null" json:"quantity"`
}

// ItemKey builds the storage key "{userID}_{itemID}".
func ItemKey(userID uint64, itemID int) string {
	return strconv.FormatUint(userID, 10) + "_" + strconv.Itoa(itemID)
}

// Key returns the storage key derived from the item's owner and kind.
func (i *Item) Key() string {
	return ItemKey(i.UserID, i.ItemID)
}
