package models

// BattleData marks a user's active battle. A row exists only while the battle
// is in progress; clearing it deletes the row.
type BattleData struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ChannelID uint64 `gorm:"not null;index" json:"channel_id"`
	Damage    int64  `gorm:"not null" json:"damage"`
	Hits      int    `gorm:"not null" json:"hits"`
}

// ChannelData is the channel-scoped monster progression.
type ChannelData struct {
	ChannelID    uint64 `gorm:"primaryKey;autoIncrement:false" json:"channel_id"`
	GuildID      uint64 `gorm:"not null;index" json:"guild_id"`
	MonsterLevel int    `gorm:"not null;index" json:"monster_level"`
	MonsterHP    int64  `gorm:"column:monster_hp;not null" json:"monster_hp"`
	Kills        int64  `gorm:"not null" json:"kills"`
}

// MonsterMaxHP is the hit points a monster spawns with at the given level.
func MonsterMaxHP(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(level) * 10
}

// NewChannel returns the row a channel starts with: a level 1 monster at full health.
func NewChannel(channelID, guildID uint64) *ChannelData {
	return &ChannelData{
		ChannelID:    channelID,
		GuildID:      guildID,
		MonsterLevel: 1,
		MonsterHP:    MonsterMaxHP(1),
	}
}

// All lists every persisted model for migrations.
func All() []interface{} {
	return []interface{}{
		&Player{},
		&Item{},
		&Weapon{},
		&Armor{},
		&BattleData{},
		&ChannelData{},
	}
}
