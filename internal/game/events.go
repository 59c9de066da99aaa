package game

// Event types published to the Notifier.
const (
	EventAttack          = "attack"
	EventMonsterDefeated = "monster_defeated"
	EventBattleReset     = "battle_reset"
)

// Event is a game happening worth streaming to observers.
type Event struct {
	Type         string   `json:"type"`
	UserID       uint64   `json:"user_id,omitempty"`
	ChannelID    uint64   `json:"channel_id"`
	MonsterLevel int      `json:"monster_level,omitempty"`
	MonsterHP    int64    `json:"monster_hp,omitempty"`
	Participants []uint64 `json:"participants,omitempty"`
	Time         int64    `json:"time"`
}

// Notifier receives events after the change is committed. Publish must not block.
type Notifier interface {
	Publish(Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}
