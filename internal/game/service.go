// Package game runs player commands against the store. Commands that change
// state, and the leaderboards, pass the cooldown gate first.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"zengo/internal/cooldown"
	"zengo/internal/models"
	"zengo/internal/ranking"
	"zengo/internal/storage"
)

var (
	ErrCoolingDown     = errors.New("under cooldown")
	ErrNotFound        = errors.New("not found")
	ErrItemNotOwned    = errors.New("item not owned")
	ErrBattleElsewhere = errors.New("battle in progress in another channel")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

const (
	itemDamage   = 5
	expPerLevel  = 100
	rewardFactor = 10
)

// Actor identifies who issues a command and where.
type Actor struct {
	UserID    uint64
	ChannelID uint64
	GuildID   uint64
}

// Service holds no state of its own; everything lives in the store.
type Service struct {
	store    *storage.Store
	rankings *ranking.Index
	gate     cooldown.Admitter
	notifier Notifier
}

func NewService(store *storage.Store, gate cooldown.Admitter, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		store:    store,
		rankings: ranking.NewIndex(store),
		gate:     gate,
		notifier: notifier,
	}
}

// admit must run before the command does any work, so the window starts at
// request time rather than when a slow command finishes.
func (s *Service) admit(ctx context.Context, userID uint64) error {
	ok, err := s.gate.Allow(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check cooldown: %w", err)
	}
	if !ok {
		return ErrCoolingDown
	}
	return nil
}

// CooldownStats returns the gate's counters. ok is false when the gate keeps
// none, as with the Redis backend.
func (s *Service) CooldownStats() (stats cooldown.Stats, ok bool) {
	r, ok := s.gate.(cooldown.StatsReporter)
	if !ok {
		return cooldown.Stats{}, false
	}
	return r.Stats(), true
}

// AttackResult describes one hit on a channel's monster.
type AttackResult struct {
	Player       models.Player `json:"player"`
	Damage       int64         `json:"damage"`
	MonsterLevel int           `json:"monster_level"`
	MonsterHP    int64         `json:"monster_hp"`
	Defeated     bool          `json:"defeated"`
	Reward       int64         `json:"reward,omitempty"`
	Participants []uint64      `json:"participants,omitempty"`
}

// Attack hits the channel's monster with the actor's equipped weapons.
func (s *Service) Attack(ctx context.Context, a Actor) (*AttackResult, error) {
	if err := s.admit(ctx, a.UserID); err != nil {
		return nil, err
	}

	weapons, err := s.store.ListWeapons(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	damage := int64(1)
	for _, w := range weapons {
		if w.Equipped {
			damage += int64(w.Power)
		}
	}

	return s.strike(ctx, a, damage, nil)
}

// UseItem consumes one of the actor's items and hits the monster with it.
func (s *Service) UseItem(ctx context.Context, a Actor, itemID int) (*AttackResult, error) {
	if err := s.admit(ctx, a.UserID); err != nil {
		return nil, err
	}

	// Unlocked read to fail fast; the count is checked again under the lock.
	item, err := s.store.GetItem(ctx, a.UserID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Quantity <= 0 {
		return nil, ErrItemNotOwned
	}

	return s.strike(ctx, a, itemDamage, func(tx *storage.Store) error {
		item, err := tx.GetItemForUpdate(ctx, a.UserID, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.Quantity <= 0 {
			return ErrItemNotOwned
		}
		item.Quantity--
		_, err = tx.UpsertItem(ctx, item)
		return err
	})
}

// strike applies damage inside one transaction. extra, when set, runs in the
// same transaction before anything else is written.
//
// Rows are locked in a fixed order: the channel, then the player. The channel
// lock serializes every hit on one monster; the player lock serializes one
// user's hits across channels and guards the user's battle row with it.
func (s *Service) strike(ctx context.Context, a Actor, damage int64, extra func(tx *storage.Store) error) (*AttackResult, error) {
	// Both rows must exist before they are locked.
	if err := s.store.EnsureChannel(ctx, models.NewChannel(a.ChannelID, a.GuildID)); err != nil {
		return nil, err
	}
	if err := s.store.EnsurePlayer(ctx, models.NewPlayer(a.UserID)); err != nil {
		return nil, err
	}

	var result *AttackResult

	err := s.store.WithTx(ctx, func(tx *storage.Store) error {
		channel, err := tx.GetChannelForUpdate(ctx, a.ChannelID)
		if err != nil {
			return err
		}
		player, err := tx.GetPlayerForUpdate(ctx, a.UserID)
		if err != nil {
			return err
		}
		if channel == nil || player == nil {
			return fmt.Errorf("channel %d or player %d vanished: %w", a.ChannelID, a.UserID, ErrNotFound)
		}

		battle, err := tx.GetBattle(ctx, a.UserID)
		if err != nil {
			return err
		}
		if battle != nil && battle.ChannelID != a.ChannelID {
			return ErrBattleElsewhere
		}
		if battle == nil {
			battle = &models.BattleData{UserID: a.UserID, ChannelID: a.ChannelID}
		}

		if extra != nil {
			if err := extra(tx); err != nil {
				return err
			}
		}

		battle.Damage += damage
		battle.Hits++
		player.Exp += damage
		player.Attacks++
		player.Level = levelFor(player.Exp)
		channel.MonsterHP -= damage

		if _, err := tx.UpsertPlayer(ctx, player); err != nil {
			return err
		}
		if _, err := tx.UpsertBattle(ctx, battle); err != nil {
			return err
		}

		result = &AttackResult{
			Player:       *player,
			Damage:       damage,
			MonsterLevel: channel.MonsterLevel,
		}

		if channel.MonsterHP > 0 {
			result.MonsterHP = channel.MonsterHP
			_, err := tx.UpsertChannel(ctx, channel)
			return err
		}

		return s.defeat(ctx, tx, channel, result)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(Event{
		Type:         EventAttack,
		UserID:       a.UserID,
		ChannelID:    a.ChannelID,
		MonsterLevel: result.MonsterLevel,
		MonsterHP:    result.MonsterHP,
		Time:         time.Now().Unix(),
	})
	if result.Defeated {
		log.Printf("[Game] Channel %d defeated level %d monster (%d participants)", a.ChannelID, result.MonsterLevel, len(result.Participants))
		s.notifier.Publish(Event{
			Type:         EventMonsterDefeated,
			UserID:       a.UserID,
			ChannelID:    a.ChannelID,
			MonsterLevel: result.MonsterLevel,
			Participants: result.Participants,
			Time:         time.Now().Unix(),
		})
	}
	return result, nil
}

// defeat rewards every fighter in the channel, ends their battles and spawns
// the next monster.
func (s *Service) defeat(ctx context.Context, tx *storage.Store, channel *models.ChannelData, result *AttackResult) error {
	battles, err := tx.ListBattles(ctx, channel.ChannelID)
	if err != nil {
		return err
	}
	players, err := tx.ListPlayersInBattles(ctx, battles)
	if err != nil {
		return err
	}

	reward := int64(channel.MonsterLevel * rewardFactor)
	participants := make([]uint64, 0, len(players))
	for i := range players {
		p := &players[i]
		p.Exp += reward
		p.Gold += reward
		p.Level = levelFor(p.Exp)
		participants = append(participants, p.UserID)
		if p.UserID == result.Player.UserID {
			result.Player = *p
		}
	}
	if _, err := tx.UpsertPlayers(ctx, players); err != nil {
		return err
	}
	if _, err := tx.ClearChannelBattles(ctx, channel.ChannelID); err != nil {
		return err
	}

	channel.Kills++
	channel.MonsterLevel++
	channel.MonsterHP = models.MonsterMaxHP(channel.MonsterLevel)
	if _, err := tx.UpsertChannel(ctx, channel); err != nil {
		return err
	}

	result.Defeated = true
	result.Reward = reward
	result.Participants = participants
	result.MonsterHP = channel.MonsterHP
	return nil
}

func levelFor(exp int64) int {
	if exp < 0 {
		return 1
	}
	return int(exp/expPerLevel) + 1
}

// Reset ends the user's battle, if any. It reports whether a battle was cleared.
func (s *Service) Reset(ctx context.Context, userID uint64) (bool, error) {
	battle, err := s.store.GetBattle(ctx, userID)
	if err != nil {
		return false, err
	}
	if battle == nil {
		return false, nil
	}
	n, err := s.store.ClearBattle(ctx, battle)
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.notifier.Publish(Event{Type: EventBattleReset, UserID: userID, ChannelID: battle.ChannelID, Time: time.Now().Unix()})
	}
	return n > 0, nil
}

// ChannelReport is a channel's monster and who is fighting it.
type ChannelReport struct {
	Channel models.ChannelData  `json:"channel"`
	Battles []models.BattleData `json:"battles"`
}

func (s *Service) Inquiry(ctx context.Context, channelID uint64) (*ChannelReport, error) {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %d: %w", channelID, ErrNotFound)
	}
	battles, err := s.store.ListBattles(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return &ChannelReport{Channel: *channel, Battles: battles}, nil
}

// Profile is everything a player owns.
type Profile struct {
	Player  models.Player      `json:"player"`
	Battle  *models.BattleData `json:"battle,omitempty"`
	Items   []models.Item      `json:"items"`
	Weapons []models.Weapon    `json:"weapons"`
	Armors  []models.Armor     `json:"armors"`
}

func (s *Service) Profile(ctx context.Context, userID uint64) (*Profile, error) {
	player, err := s.store.GetPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %d: %w", userID, ErrNotFound)
	}

	p := &Profile{Player: *player}
	if p.Battle, err = s.store.GetBattle(ctx, userID); err != nil {
		return nil, err
	}
	if p.Items, err = s.store.ListItems(ctx, userID); err != nil {
		return nil, err
	}
	if p.Weapons, err = s.store.ListWeapons(ctx, userID); err != nil {
		return nil, err
	}
	if p.Armors, err = s.store.ListArmors(ctx, userID); err != nil {
		return nil, err
	}
	return p, nil
}

// PlayerRanking is gated like other commands since it scans the whole table.
func (s *Service) PlayerRanking(ctx context.Context, userID uint64, page int) ([]models.Player, error) {
	if err := s.admit(ctx, userID); err != nil {
		return nil, err
	}
	return s.rankings.PlayerRanking(ctx, page)
}

func (s *Service) ChannelRanking(ctx context.Context, userID uint64, page int) ([]models.ChannelData, error) {
	if err := s.admit(ctx, userID); err != nil {
		return nil, err
	}
	return s.rankings.ChannelRanking(ctx, page)
}
