package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pegboard/cribbage/internal/models"
)

// fakeStore is an in-memory Store for registry tests. All methods are safe
// for concurrent use because the registry persists asynchronously.
type fakeStore struct {
	mu sync.Mutex

	nextID    int64
	players   map[int64]models.Player
	games     map[int64]models.Game
	histories map[int64]models.GameHistory
	assocs    []models.GameHistoryPlayer
	hands     []models.HandHistory
	winLoss   []models.WinLossHistory

	failCreateHistory bool
	failAssociations  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:   make(map[int64]models.Player),
		games:     make(map[int64]models.Game),
		histories: make(map[int64]models.GameHistory),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) CreatePlayer(_ context.Context, name string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Player{ID: s.id(), Name: name, CreatedAt: time.Now()}
	s.players[p.ID] = p
	return p, nil
}

func (s *fakeStore) FindPlayerByName(_ context.Context, name string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Player{}, fmt.Errorf("player %q: %w", name, ErrNotFound)
}

func (s *fakeStore) FindPlayer(_ context.Context, id int64) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return models.Player{}, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *fakeStore) CreateGame(_ context.Context, name string) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := models.Game{ID: s.id(), Name: name, CreatedAt: time.Now()}
	s.games[g.ID] = g
	return g, nil
}

func (s *fakeStore) FindGameByName(_ context.Context, name string) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Name == name {
			return g, nil
		}
	}
	return models.Game{}, fmt.Errorf("game %q: %w", name, ErrNotFound)
}

func (s *fakeStore) CreateGameHistory(_ context.Context, gameID int64) (models.GameHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateHistory {
		return models.GameHistory{}, fmt.Errorf("fake store: history insert refused")
	}
	gh := models.GameHistory{ID: s.id(), GameID: gameID, CreatedAt: time.Now()}
	s.histories[gh.ID] = gh
	return gh, nil
}

func (s *fakeStore) FindGameHistory(_ context.Context, id int64) (models.GameHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gh, ok := s.histories[id]
	if !ok {
		return models.GameHistory{}, fmt.Errorf("game history %d: %w", id, ErrNotFound)
	}
	return gh, nil
}

func (s *fakeStore) EndGameHistory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gh, ok := s.histories[id]
	if !ok {
		return fmt.Errorf("game history %d: %w", id, ErrNotFound)
	}
	gh.Finished = true
	s.histories[id] = gh
	return nil
}

func (s *fakeStore) CreateAssociations(_ context.Context, playerIDs []int64, gameHistoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAssociations {
		return fmt.Errorf("fake store: association insert refused")
	}
	for seat, pid := range playerIDs {
		s.assocs = append(s.assocs, models.GameHistoryPlayer{
			ID: s.id(), PlayerID: pid, GameHistoryID: gameHistoryID, Seat: seat,
		})
	}
	return nil
}

func (s *fakeStore) FindAssociation(_ context.Context, playerID, gameHistoryID int64) (models.GameHistoryPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assocs {
		if a.PlayerID == playerID && a.GameHistoryID == gameHistoryID {
			return a, nil
		}
	}
	return models.GameHistoryPlayer{}, fmt.Errorf("association %d/%d: %w", playerID, gameHistoryID, ErrNotFound)
}

func (s *fakeStore) FindAssociations(_ context.Context, gameHistoryID int64) ([]models.GameHistoryPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GameHistoryPlayer
	for _, a := range s.assocs {
		if a.GameHistoryID == gameHistoryID {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("history %d roster: %w", gameHistoryID, ErrNotFound)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out, nil
}

func (s *fakeStore) FindUnfinished(_ context.Context, playerID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, a := range s.assocs {
		if a.PlayerID != playerID {
			continue
		}
		if gh, ok := s.histories[a.GameHistoryID]; ok && !gh.Finished {
			ids = append(ids, gh.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

func (s *fakeStore) BulkCreateHandHistories(_ context.Context, hands []models.HandHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hands {
		h.ID = s.id()
		h.CreatedAt = time.Now()
		s.hands = append(s.hands, h)
	}
	return nil
}

func (s *fakeStore) FindLastHand(_ context.Context, playerID, gameHistoryID int64) (models.HandHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.hands) - 1; i >= 0; i-- {
		h := s.hands[i]
		if h.PlayerID == playerID && h.GameHistoryID == gameHistoryID && !h.Crib {
			return h, nil
		}
	}
	return models.HandHistory{}, fmt.Errorf("last hand %d/%d: %w", playerID, gameHistoryID, ErrNotFound)
}

func (s *fakeStore) HasUnplayedHands(_ context.Context, gameHistoryID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hands {
		if h.GameHistoryID == gameHistoryID && !h.Played {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UnplayedHands(_ context.Context, gameHistoryID int64) ([]models.HandHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HandHistory
	for _, h := range s.hands {
		if h.GameHistoryID == gameHistoryID && !h.Played {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) LastPlayedCrib(_ context.Context, gameHistoryID int64) (models.HandHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.hands) - 1; i >= 0; i-- {
		h := s.hands[i]
		if h.GameHistoryID == gameHistoryID && h.Crib && h.Played {
			return h, nil
		}
	}
	return models.HandHistory{}, fmt.Errorf("last played crib for history %d: %w", gameHistoryID, ErrNotFound)
}

func (s *fakeStore) MarkRoundPlayed(_ context.Context, gameHistoryID int64, points map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lastKept := make(map[int64]int) // player -> index of last unplayed kept row
	for i, h := range s.hands {
		if h.GameHistoryID != gameHistoryID || h.Played {
			continue
		}
		s.hands[i].Played = true
		if !h.Crib {
			lastKept[h.PlayerID] = i
		}
	}
	for pid, pts := range points {
		if i, ok := lastKept[pid]; ok {
			s.hands[i].Points = pts
		}
	}
	return nil
}

func (s *fakeStore) BulkCreateWinLoss(_ context.Context, playerIDs []int64, gameHistoryID int64, won map[int64]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range playerIDs {
		s.winLoss = append(s.winLoss, models.WinLossHistory{
			ID: s.id(), PlayerID: pid, GameHistoryID: gameHistoryID, Won: won[pid], CreatedAt: time.Now(),
		})
	}
	return nil
}

func (s *fakeStore) GetWinLoss(_ context.Context, playerName string) (models.WinLossRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := models.WinLossRecord{PlayerName: playerName}
	for _, wl := range s.winLoss {
		p, ok := s.players[wl.PlayerID]
		if !ok || p.Name != playerName {
			continue
		}
		if wl.Won {
			rec.Wins++
		} else {
			rec.Losses++
		}
	}
	return rec, nil
}

// winLossCount returns the recorded rows for a history, for assertions.
func (s *fakeStore) winLossCount(gameHistoryID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, wl := range s.winLoss {
		if wl.GameHistoryID == gameHistoryID {
			n++
		}
	}
	return n
}

// handCount returns the hand rows for a history, for assertions.
func (s *fakeStore) handCount(gameHistoryID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hands {
		if h.GameHistoryID == gameHistoryID {
			n++
		}
	}
	return n
}

// historyFinished reports the finished flag, for assertions.
func (s *fakeStore) historyFinished(gameHistoryID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.histories[gameHistoryID].Finished
}
