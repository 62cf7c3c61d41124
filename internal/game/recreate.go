package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pegboard/cribbage/engine"
	"github.com/pegboard/cribbage/internal/models"
)

// resolveAssociation returns the resident association for a history,
// recreating it from persisted state when the live object is gone (process
// restart, eviction). A recreation failure registers nothing.
func (r *Registry) resolveAssociation(ctx context.Context, gameHistoryID int64) (*Association, error) {
	r.mu.RLock()
	assoc, live := r.games[gameHistoryID]
	r.mu.RUnlock()
	if live {
		return assoc, nil
	}

	assoc, err := r.recreate(ctx, gameHistoryID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, live := r.games[gameHistoryID]; live {
		// Lost a recreation race; the first registration wins.
		return existing, nil
	}
	r.games[gameHistoryID] = assoc
	logrus.WithField("gameHistoryId", gameHistoryID).Info("registry: game recreated")
	return assoc, nil
}

// recreate rebuilds a live game from persisted history. It reads only, so
// running it twice against the same stored state yields an equivalent game:
// same seating, dealer, next player, and point totals.
func (r *Registry) recreate(ctx context.Context, gameHistoryID int64) (*Association, error) {
	gh, err := r.store.FindGameHistory(ctx, gameHistoryID)
	if err != nil {
		return nil, fmt.Errorf("load game history: %w", err)
	}
	if gh.Finished {
		return nil, ErrGameFinished
	}

	assocRows, err := r.store.FindAssociations(ctx, gameHistoryID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	g := engine.NewGame(r.seed())
	idByName := make(map[string]int64, len(assocRows))
	nameByID := make(map[int64]string, len(assocRows))
	names := make([]string, 0, len(assocRows))
	for _, row := range assocRows {
		p, err := r.store.FindPlayer(ctx, row.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("load player %d: %w", row.PlayerID, err)
		}
		if err := g.AddPlayer(p.Name); err != nil {
			return nil, fmt.Errorf("seat %s: %w", p.Name, err)
		}
		idByName[p.Name] = p.ID
		nameByID[p.ID] = p.Name
		names = append(names, p.Name)
	}

	// Accumulated points come from each player's most recent kept-hand row.
	points := make(map[string]int, len(names))
	for name, pid := range idByName {
		h, err := r.store.FindLastHand(ctx, pid, gameHistoryID)
		switch {
		case errors.Is(err, ErrNotFound):
			points[name] = 0
		case err != nil:
			return nil, fmt.Errorf("load points for %s: %w", name, err)
		default:
			points[name] = h.Points
		}
	}

	interrupted, err := r.store.HasUnplayedHands(ctx, gameHistoryID)
	if err != nil {
		return nil, fmt.Errorf("check unplayed hands: %w", err)
	}

	if interrupted {
		if err := r.restoreRound(ctx, g, gameHistoryID, nameByID, points); err != nil {
			return nil, err
		}
	} else if err := r.redeal(ctx, g, gameHistoryID, nameByID, names, points); err != nil {
		return nil, err
	}

	return &Association{
		GameHistoryID: gameHistoryID,
		Game:          g,
		PlayerIDs:     idByName,
	}, nil
}

// restoreRound reinstalls an interrupted round: the unplayed crib row names
// the dealer, the unplayed hand rows restore the kept hands, and the restored
// cards are stripped from a fresh deck.
func (r *Registry) restoreRound(ctx context.Context, g *engine.Game, gameHistoryID int64,
	nameByID map[int64]string, points map[string]int) error {

	rows, err := r.store.UnplayedHands(ctx, gameHistoryID)
	if err != nil {
		return fmt.Errorf("load unplayed hands: %w", err)
	}

	var cribRow *models.HandHistory
	hands := make(map[string][]engine.Card)
	for i := range rows {
		row := rows[i]
		name, known := nameByID[row.PlayerID]
		if !known {
			return fmt.Errorf("hand row %d references player %d outside the roster", row.ID, row.PlayerID)
		}
		if row.Crib {
			cribRow = &rows[i]
			continue
		}
		cards, err := models.DecodeHand(row.Hand)
		if err != nil {
			return fmt.Errorf("decode hand for %s: %w", name, err)
		}
		hands[name] = cards
	}
	if cribRow == nil {
		return fmt.Errorf("history %d has unplayed hands but no crib row", gameHistoryID)
	}

	dealer := nameByID[cribRow.PlayerID]
	if err := g.Rehydrate(dealer); err != nil {
		return fmt.Errorf("rehydrate: %w", err)
	}
	for name, pts := range points {
		if err := g.SetPoints(name, pts); err != nil {
			return fmt.Errorf("restore points: %w", err)
		}
	}

	crib, err := models.DecodeHand(cribRow.Hand)
	if err != nil {
		return fmt.Errorf("decode crib: %w", err)
	}
	cut, err := engine.ParseCard(cribRow.Cut)
	if err != nil {
		return fmt.Errorf("decode cut: %w", err)
	}
	if err := g.ResumeRound(hands, crib, cut); err != nil {
		return fmt.Errorf("resume round: %w", err)
	}
	return nil
}

// redeal starts a fresh round for a history with no round in flight. The
// dealer derives from the last counted crib's owner, rotated one seat; a
// history with no counted rounds yet falls back to seating order.
func (r *Registry) redeal(ctx context.Context, g *engine.Game, gameHistoryID int64,
	nameByID map[int64]string, names []string, points map[string]int) error {

	// Deal rotates off the seat given to Rehydrate, so hand it the previous
	// dealer.
	prevDealer := names[len(names)-1]
	cribRow, err := r.store.LastPlayedCrib(ctx, gameHistoryID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Fresh game; seat 0 deals first.
	case err != nil:
		return fmt.Errorf("load last crib: %w", err)
	default:
		name, known := nameByID[cribRow.PlayerID]
		if !known {
			return fmt.Errorf("crib row %d references player %d outside the roster", cribRow.ID, cribRow.PlayerID)
		}
		prevDealer = name
	}

	if err := g.Rehydrate(prevDealer); err != nil {
		return fmt.Errorf("rehydrate: %w", err)
	}
	for name, pts := range points {
		if err := g.SetPoints(name, pts); err != nil {
			return fmt.Errorf("restore points: %w", err)
		}
	}
	if err := g.Deal(); err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	return nil
}
