package models

// Player is the global progression row for a chat user.
type Player struct {
	UserID  uint64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Exp     int64  `gorm:"not null;index" json:"exp"`
	Level   int    `gorm:"not null" json:"level"`
	Gold    int64  `gorm:"not null" json:"gold"`
	Attacks int64  `gorm:"not null" json:"attacks"`
}

// NewPlayer returns the row a user starts with before their first upsert.
func NewPlayer(userID uint64) *Player {
	return &Player{UserID: userID, Level: 1}
}
