package session

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/board"
	"github.com/ilianxin/RichMan-Web3/platform/dice"
	"github.com/ilianxin/RichMan-Web3/platform/ledger"
)

// Game constants.
const (
	StartingBalance = 10000
	PassGoBonus     = 2000
	JailPosition    = 10
	BailCost        = 500
	MaxLevel        = 5
)

// Turn phases of a player's per-turn state machine.
type Phase int

const (
	Idle Phase = iota
	Rolling
	Moving
	ResolvingTile
)

// Player is one participant's in-session state. Balance never goes
// negative; Properties holds owned positions in purchase order.
type Player struct {
	Id         string
	Username   string
	Pos        int
	Balance    int
	Properties []int
	Jailed     bool

	phase       Phase
	hasRolled   bool
	lastOutcome *models.TurnOutcome
}

func (p *Player) ownsTile(pos int) bool {
	for _, owned := range p.Properties {
		if owned == pos {
			return true
		}
	}
	return false
}

// Event is one typed change notification delivered to subscribers.
type Event struct {
	Type       string                   `json:"type"` // "turn", "message", "settlement", "change-turn", "reset"
	User_id    string                   `json:"user_id,omitempty"`
	Outcome    *models.TurnOutcome      `json:"outcome,omitempty"`
	Settlement *models.SettlementRecord `json:"settlement,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

// Store persists session state out of process after each mutation, best
// effort, and loads it back when a session is recreated after a restart.
// A nil Store disables persistence.
type Store interface {
	SavePlayer(gameId, userId string, snapshot models.PlayerDto) error
	SaveTile(gameId string, state models.TileState) error
	SaveMeta(gameId string, meta models.GameMeta) error
	DeletePlayer(gameId, userId string) error
	DeleteTile(gameId string, pos int) error
	Load(gameId string) (map[string]models.PlayerDto, []models.TileState, models.GameMeta, error)
	Clear(gameId string) error
}

// Options configures a session. Zero values get working defaults: seeded
// randomness, an inactive mirror, no persistence.
type Options struct {
	Dice   dice.Source
	Deck   dice.Deck
	Mirror *ledger.Mirror
	Store  Store
}

// Session is the single-writer owner of all mutable game state for one
// game: player balances and positions, per-tile ownership, the mint
// counter. Every entry point takes the session lock, so no two mutations
// of the same player or tile ever interleave.
type Session struct {
	Id string

	mu      sync.Mutex
	catalog *board.Catalog
	dice    dice.Source
	deck    dice.Deck
	mirror  *ledger.Mirror
	store   Store

	players map[string]*Player
	order   []string
	turn    int
	started bool

	tiles     map[int]*models.TileState // property tiles only, created on first purchase
	nextToken uint64

	subs    map[int]chan Event
	nextSub int
}

func New(id string, catalog *board.Catalog, opts Options) *Session {
	if opts.Dice == nil {
		opts.Dice = dice.NewSource(time.Now().UnixNano())
	}
	if opts.Deck == nil {
		opts.Deck = dice.NewDeck(time.Now().UnixNano())
	}
	if opts.Mirror == nil {
		opts.Mirror = ledger.NewMirror()
	}
	return &Session{
		Id:        id,
		catalog:   catalog,
		dice:      opts.Dice,
		deck:      opts.Deck,
		mirror:    opts.Mirror,
		store:     opts.Store,
		players:   make(map[string]*Player),
		tiles:     make(map[int]*models.TileState),
		nextToken: 1,
		subs:      make(map[int]chan Event),
	}
}

func (s *Session) Mirror() *ledger.Mirror {
	return s.mirror
}

// AddPlayer registers a participant before or after start. Position 0,
// starting balance, no properties.
func (s *Session) AddPlayer(id, username string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		return p
	}
	p := &Player{Id: id, Username: username, Balance: StartingBalance}
	s.players[id] = p
	s.order = append(s.order, id)
	s.persistPlayer(p)
	return p
}

func (s *Session) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return
	}
	// Release their holdings so the tiles become purchasable again, in the
	// store too, or the stale ownership comes back on the next restore.
	for _, pos := range p.Properties {
		delete(s.tiles, pos)
		s.unpersistTile(pos)
	}
	delete(s.players, id)
	s.unpersistPlayer(id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			if s.turn >= len(s.order) && len(s.order) > 0 {
				s.turn = 0
			}
			break
		}
	}
}

// Start locks in the turn order. Sessions with a single player are always
// that player's turn.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return ErrUnknownPlayer
	}
	s.started = true
	s.turn = 0
	s.persistMeta()
	return nil
}

func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// CurrentTurn returns the user id whose turn it is.
func (s *Session) CurrentTurn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || len(s.order) == 0 {
		return ""
	}
	return s.order[s.turn]
}

// EndTurn passes play to the next player. The current player must have
// rolled first.
func (s *Session) EndTurn(userId string) (string, error) {
	s.mu.Lock()
	p, err := s.turnPlayer(userId)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if !p.hasRolled {
		s.mu.Unlock()
		return "", ErrMustRoll
	}
	p.hasRolled = false
	p.lastOutcome = nil
	s.turn = (s.turn + 1) % len(s.order)
	next := s.order[s.turn]
	s.mu.Unlock()

	s.publish(Event{Type: "change-turn", User_id: next})
	return next, nil
}

// turnPlayer resolves userId and checks it is their turn. Caller holds the
// lock.
func (s *Session) turnPlayer(userId string) (*Player, error) {
	p, ok := s.players[userId]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.order[s.turn] != userId {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// player resolves userId without a turn check, for actions allowed out of
// turn (rent is charged on the mover's turn but paid by the mover; property
// management has no turn restriction). Caller holds the lock.
func (s *Session) player(userId string) (*Player, error) {
	p, ok := s.players[userId]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// Reset restores every player to the starting state and clears all tile
// ownership. Minted token ids are not reused: the counter survives reset,
// matching the chain where minted NFTs persist.
func (s *Session) Reset() {
	s.mu.Lock()
	// Drop the stored hash before re-persisting, so no stale tile entries
	// survive into the fresh round.
	if s.store != nil {
		if err := s.store.Clear(s.Id); err != nil {
			logrus.WithError(err).WithField("game", s.Id).Warn("failed clearing stored session")
		}
	}
	for _, p := range s.players {
		p.Pos = 0
		p.Balance = StartingBalance
		p.Properties = nil
		p.Jailed = false
		p.phase = Idle
		p.hasRolled = false
		p.lastOutcome = nil
		s.persistPlayer(p)
	}
	s.tiles = make(map[int]*models.TileState)
	s.turn = 0
	s.persistMeta()
	s.mu.Unlock()

	s.publish(Event{Type: "reset", Message: "Game reset"})
}

// TileState returns the mutable state of a property tile. Unowned
// properties report a zero state.
func (s *Session) TileState(pos int) (models.TileState, error) {
	tile, err := s.catalog.TileAt(pos)
	if err != nil {
		return models.TileState{}, err
	}
	if !tile.IsProperty() {
		return models.TileState{}, ErrNotProperty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.tiles[pos]; ok {
		return *st, nil
	}
	return models.TileState{Position: pos}, nil
}

// TileStates snapshots all owned property tiles.
func (s *Session) TileStates() []models.TileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TileState, 0, len(s.tiles))
	for _, st := range s.tiles {
		out = append(out, *st)
	}
	return out
}

// Snapshot returns a player's public state.
func (s *Session) Snapshot(userId string) (models.PlayerDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[userId]
	if !ok {
		return models.PlayerDto{}, ErrUnknownPlayer
	}
	return snapshotOf(p), nil
}

func snapshotOf(p *Player) models.PlayerDto {
	properties := make([]int, len(p.Properties))
	copy(properties, p.Properties)
	return models.PlayerDto{
		Username:   p.Username,
		Balance:    p.Balance,
		Pos:        p.Pos,
		Properties: properties,
		Jail:       p.Jailed,
	}
}

// Subscribe registers an observer. The returned cancel function must be
// called to release the channel. Slow subscribers lose events rather than
// block the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 32)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publish delivers an event to every live subscriber. Sends happen under
// the lock so a concurrent cancel cannot close a channel mid-send; they
// never block because every subscriber channel is buffered and full ones
// drop the event.
func (s *Session) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// persistPlayer writes a player snapshot through to the store, best
// effort. Caller holds the lock.
func (s *Session) persistPlayer(p *Player) {
	if s.store == nil {
		return
	}
	if err := s.store.SavePlayer(s.Id, p.Id, snapshotOf(p)); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"game": s.Id, "user": p.Id}).Warn("failed persisting player")
	}
}

// persistTile writes a tile state through to the store. Caller holds the
// lock.
func (s *Session) persistTile(st *models.TileState) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTile(s.Id, *st); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"game": s.Id, "pos": st.Position}).Warn("failed persisting tile")
	}
}

// persistMeta writes the started flag and mint counter. Caller holds the
// lock.
func (s *Session) persistMeta() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveMeta(s.Id, models.GameMeta{Started: s.started, NextToken: s.nextToken}); err != nil {
		logrus.WithError(err).WithField("game", s.Id).Warn("failed persisting game meta")
	}
}

func (s *Session) unpersistPlayer(id string) {
	if s.store == nil {
		return
	}
	if err := s.store.DeletePlayer(s.Id, id); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"game": s.Id, "user": id}).Warn("failed removing stored player")
	}
}

func (s *Session) unpersistTile(pos int) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteTile(s.Id, pos); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"game": s.Id, "pos": pos}).Warn("failed removing stored tile")
	}
}

// restore rehydrates a freshly created session from the store, so a game
// picks up where it left off after a process restart. Whose turn it was is
// not persisted; rotation restarts from the first player in sorted order.
func (s *Session) restore() {
	if s.store == nil {
		return
	}
	players, tiles, meta, err := s.store.Load(s.Id)
	if err != nil {
		logrus.WithError(err).WithField("game", s.Id).Warn("failed loading stored session")
		return
	}
	if len(players) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap := players[id]
		s.players[id] = &Player{
			Id:         id,
			Username:   snap.Username,
			Pos:        snap.Pos,
			Balance:    snap.Balance,
			Properties: snap.Properties,
			Jailed:     snap.Jail,
		}
		s.order = append(s.order, id)
	}
	for _, st := range tiles {
		state := st
		s.tiles[state.Position] = &state
		if state.TokenId >= s.nextToken {
			s.nextToken = state.TokenId + 1
		}
	}
	s.started = meta.Started
	if meta.NextToken > s.nextToken {
		s.nextToken = meta.NextToken
	}
	logrus.WithFields(logrus.Fields{"game": s.Id, "players": len(ids), "tiles": len(tiles)}).Info("session restored")
}
