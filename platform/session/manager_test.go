package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/board"
	"github.com/ilianxin/RichMan-Web3/platform/ledger"
)

// memStore keeps snapshots in memory, standing in for redis.
type memStore struct {
	mu    sync.Mutex
	games map[string]*storedGame
}

type storedGame struct {
	players map[string]models.PlayerDto
	tiles   map[int]models.TileState
	meta    models.GameMeta
}

func newMemStore() *memStore {
	return &memStore{games: make(map[string]*storedGame)}
}

func (s *memStore) game(id string) *storedGame {
	g, ok := s.games[id]
	if !ok {
		g = &storedGame{
			players: make(map[string]models.PlayerDto),
			tiles:   make(map[int]models.TileState),
		}
		s.games[id] = g
	}
	return g
}

func (s *memStore) SavePlayer(gameId, userId string, snapshot models.PlayerDto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game(gameId).players[userId] = snapshot
	return nil
}

func (s *memStore) SaveTile(gameId string, state models.TileState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game(gameId).tiles[state.Position] = state
	return nil
}

func (s *memStore) SaveMeta(gameId string, meta models.GameMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game(gameId).meta = meta
	return nil
}

func (s *memStore) DeletePlayer(gameId, userId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.game(gameId).players, userId)
	return nil
}

func (s *memStore) DeleteTile(gameId string, pos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.game(gameId).tiles, pos)
	return nil
}

func (s *memStore) Load(gameId string) (map[string]models.PlayerDto, []models.TileState, models.GameMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameId]
	if !ok {
		return nil, nil, models.GameMeta{}, nil
	}
	players := make(map[string]models.PlayerDto, len(g.players))
	for id, snap := range g.players {
		players[id] = snap
	}
	tiles := make([]models.TileState, 0, len(g.tiles))
	for _, st := range g.tiles {
		tiles = append(tiles, st)
	}
	return players, tiles, g.meta, nil
}

func (s *memStore) Clear(gameId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameId)
	return nil
}

func TestSessionRestoreAfterRestart(t *testing.T) {
	store := newMemStore()
	catalog := board.Load()

	m := NewManager(catalog, store)
	s := m.GetOrCreate("G1")
	s.AddPlayer("p1", "p1@test.io")
	s.AddPlayer("p2", "p2@test.io")
	require.NoError(t, s.Start())

	require.NoError(t, s.Purchase("p1", 1))
	for level := 2; level <= MaxLevel; level++ {
		require.NoError(t, s.Upgrade("p1", 1))
	}
	tokenId, err := s.Mint("p1", 1, ledger.MintFee)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tokenId)

	// A new manager over the same store stands in for a restarted process.
	m2 := NewManager(catalog, store)
	restored := m2.GetOrCreate("G1")
	require.True(t, restored.Started())
	require.Equal(t, "p1", restored.CurrentTurn())

	snap, err := restored.Snapshot("p1")
	require.NoError(t, err)
	require.Equal(t, 8200, snap.Balance) // 10000 - 600 - 4*300
	require.Equal(t, []int{1}, snap.Properties)

	st, err := restored.TileState(1)
	require.NoError(t, err)
	require.Equal(t, "p1", st.Owner)
	require.Equal(t, MaxLevel, st.Level)
	require.True(t, st.Minted)
	require.Equal(t, uint64(1), st.TokenId)

	// The mint counter carries over too: the next token is #2.
	require.NoError(t, restored.Purchase("p2", 3))
	for level := 2; level <= MaxLevel; level++ {
		require.NoError(t, restored.Upgrade("p2", 3))
	}
	tokenId, err = restored.Mint("p2", 3, ledger.MintFee)
	require.NoError(t, err)
	require.Equal(t, uint64(2), tokenId)
}

func TestSessionRestoreBeforeStart(t *testing.T) {
	store := newMemStore()
	catalog := board.Load()

	m := NewManager(catalog, store)
	s := m.GetOrCreate("G1")
	s.AddPlayer("p1", "p1@test.io")

	m2 := NewManager(catalog, store)
	restored := m2.GetOrCreate("G1")
	require.False(t, restored.Started())

	snap, err := restored.Snapshot("p1")
	require.NoError(t, err)
	require.Equal(t, StartingBalance, snap.Balance)
	require.NoError(t, restored.Start())
}

func TestRemovePlayerClearsStore(t *testing.T) {
	store := newMemStore()
	catalog := board.Load()

	m := NewManager(catalog, store)
	s := m.GetOrCreate("G1")
	s.AddPlayer("p1", "p1@test.io")
	s.AddPlayer("p2", "p2@test.io")
	require.NoError(t, s.Start())
	require.NoError(t, s.Purchase("p1", 1))

	s.RemovePlayer("p1")

	m2 := NewManager(catalog, store)
	restored := m2.GetOrCreate("G1")
	_, err := restored.Snapshot("p1")
	require.ErrorIs(t, err, ErrUnknownPlayer)

	// The released holding does not come back with the restore; the tile
	// is purchasable again.
	st, err := restored.TileState(1)
	require.NoError(t, err)
	require.Empty(t, st.Owner)
	require.NoError(t, restored.Purchase("p2", 1))
}
