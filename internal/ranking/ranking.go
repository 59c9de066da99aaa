// Package ranking serves leaderboard pages over the store.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"

	"zengo/internal/models"
)

// PageSize is the number of rows on one leaderboard page.
const PageSize = 10

// maxPage is the last page whose offset fits in an int. Later pages are
// past the end of any table and come back empty without a query.
const maxPage = math.MaxInt / PageSize

var ErrInvalidPage = errors.New("invalid ranking page")

// Source is the read side of the store the rankings are computed from.
type Source interface {
	PlayersByExp(ctx context.Context, offset, limit int) ([]models.Player, error)
	ChannelsByMonsterLevel(ctx context.Context, offset, limit int) ([]models.ChannelData, error)
}

// Index reads rankings straight from Source on every call.
type Index struct {
	source Source
}

func NewIndex(source Source) *Index {
	return &Index{source: source}
}

// PlayerRanking returns page (zero-based) of players by Exp, highest first.
func (x *Index) PlayerRanking(ctx context.Context, page int) ([]models.Player, error) {
	offset, past, err := offsetOf(page)
	if err != nil {
		return nil, err
	}
	if past {
		return []models.Player{}, nil
	}
	return x.source.PlayersByExp(ctx, offset, PageSize)
}

// ChannelRanking returns page (zero-based) of channels by MonsterLevel, highest first.
func (x *Index) ChannelRanking(ctx context.Context, page int) ([]models.ChannelData, error) {
	offset, past, err := offsetOf(page)
	if err != nil {
		return nil, err
	}
	if past {
		return []models.ChannelData{}, nil
	}
	return x.source.ChannelsByMonsterLevel(ctx, offset, PageSize)
}

// offsetOf converts a page to a row offset. past reports a page beyond maxPage.
func offsetOf(page int) (offset int, past bool, err error) {
	if page < 0 {
		return 0, false, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	if page > maxPage {
		return 0, true, nil
	}
	return page * PageSize, false, nil
}
