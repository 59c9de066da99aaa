package models

// Weapon is an owned weapon. Index is a globally unique surrogate key; zero
// asks the store to assign one.
type Weapon struct {
	Index    uint64 `gorm:"primaryKey;autoIncrement" json:"index"`
	UserID   uint64 `gorm:"not null;index" json:"user_id"`
	Kind     int    `gorm:"not null" json:"kind"`
	Power    int    `gorm:"not null" json:"power"`
	Equipped bool   `gorm:"not null" json:"equipped"`
}

// Armor is an owned armor piece, keyed the same way as Weapon.
type Armor struct {
	Index    uint64 `gorm:"primaryKey;autoIncrement" json:"index"`
	UserID   uint64 `gorm:"not null;index" json:"user_id"`
	Kind     int    `gorm:"not null" json:"kind"`
	Defense  int    `gorm:"not null" json:"defense"`
	Equipped bool   `gorm:"not null" json:"equipped"`
}
