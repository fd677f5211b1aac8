package socket

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"

	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/board"
	"github.com/ilianxin/RichMan-Web3/platform/cache"
	"github.com/ilianxin/RichMan-Web3/platform/database"
	"github.com/ilianxin/RichMan-Web3/platform/ledger"
	"github.com/ilianxin/RichMan-Web3/platform/queries"
	"github.com/ilianxin/RichMan-Web3/platform/session"
)

// CreateSocketIOServer runs the realtime game surface. Clients send
// intents (roll-dice, request-buy, upgrade-building, mint-building,
// pay-rent, pay-bail, end-turn, reset-game) and receive turn outcomes and
// game messages broadcast to their game room.
func CreateSocketIOServer() {
	server, err := socketio.NewServer(nil)
	if err != nil {
		panic(err)
	}
	db := database.PostgreSQLConnection()
	defer db.Close()

	pool := cache.CreateRedisPool()
	defer pool.Close()

	catalog := board.Load()
	manager := session.NewManager(catalog, queries.NewRedisStore(pool))

	var forwardMu sync.Mutex
	forwarding := make(map[string]bool)

	// forward relays session events into the socket room, off the
	// turn-resolution path. One relay per live session.
	forward := func(game_id string, s *session.Session) {
		forwardMu.Lock()
		if forwarding[game_id] {
			forwardMu.Unlock()
			return
		}
		forwarding[game_id] = true
		forwardMu.Unlock()

		events, cancel := s.Subscribe()
		go func() {
			defer cancel()
			for event := range events {
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				switch event.Type {
				case "turn":
					server.BroadcastToRoom("/", game_id, "dice-result", string(payload))
				case "settlement":
					server.BroadcastToRoom("/", game_id, "rent-paid", string(payload))
				case "change-turn":
					server.BroadcastToRoom("/", game_id, "change-turn", event.User_id)
				case "reset":
					server.BroadcastToRoom("/", game_id, "game-reset", string(payload))
				default:
					server.BroadcastToRoom("/", game_id, "game-message", string(payload))
				}
			}
		}()

		// Divergence warnings from the ledger mirror.
		go func() {
			for confirmation := range s.Mirror().Events() {
				payload, err := json.Marshal(confirmation)
				if err != nil {
					continue
				}
				if confirmation.Ok {
					server.BroadcastToRoom("/", game_id, "ledger-confirmed", string(payload))
				} else {
					server.BroadcastToRoom("/", game_id, "ledger-diverged", string(payload))
				}
			}
		}()
	}

	decode := func(jsonStr string) map[string]string {
		var result map[string]string
		json.Unmarshal([]byte(jsonStr), &result)
		return result
	}

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		return nil
	})

	server.OnEvent("/", "join-game", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game_id, ok := result["game_id"]
		if !ok {
			logrus.Warn("join-game without game_id")
			return
		}
		if !queries.VerifyGame(game_id, db) {
			s.Emit("error-message", "Invalid game")
			s.Emit("failed")
			return
		}
		user_id, ok := result["user_id"]
		if !ok {
			s.Emit("error-message", "User not authenticated")
			s.Emit("failed")
			return
		}

		// A returning player's session was rehydrated from redis (or is
		// still live); catch them up instead of re-registering them.
		game := manager.GetOrCreate(game_id)
		if snapshot, err := game.Snapshot(user_id); err == nil {
			s.Join(game_id)
			if game.Started() {
				forward(game_id, game)
			}
			if blob, err := json.Marshal(snapshot); err == nil {
				s.Emit("restore-state", string(blob))
			}
			if blob, err := json.Marshal(game.TileStates()); err == nil {
				s.Emit("restore-board", string(blob))
			}
			server.BroadcastToRoom("/", game_id, "player-join")
			logrus.WithFields(logrus.Fields{"conn": s.ID(), "game": game_id}).Info("player rejoined")
			return
		}

		user, err := queries.GetUserData(user_id, db)
		if err != nil {
			s.Emit("error-message", "User retrieval failed")
			s.Emit("failed")
			return
		}
		if err := queries.CreatePlayer(models.Player{
			Game_id:  game_id,
			User_id:  user_id,
			Username: user.Email,
		}, db); err != nil {
			logrus.WithError(err).Warn("failed creating player")
			s.Emit("error-message", "Failed creating player")
			s.Emit("failed")
			return
		}

		server.BroadcastToRoom("/", game_id, "player-join")
		s.Join(game_id)
		s.Emit("joined-game", strconv.Itoa(server.RoomLen("/", game_id)))
		logrus.WithFields(logrus.Fields{"conn": s.ID(), "game": game_id}).Info("player joined")
	})

	server.OnEvent("/", "leave-game", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game_id := result["game_id"]
		user_id := result["user_id"]

		s.Leave(game_id)
		if game, ok := manager.Get(game_id); ok {
			game.RemovePlayer(user_id)
		}
		go queries.DeletePlayer(user_id, game_id, db)
		server.BroadcastToRoom("/", game_id, "player-left")
	})

	server.OnEvent("/", "start-game", func(s socketio.Conn, game_id string) {
		game := manager.GetOrCreate(game_id)
		if !game.Started() {
			players, err := queries.StartGame(game_id, db)
			if err != nil {
				s.Emit("error-message", "Unable to start game")
				logrus.WithError(err).WithField("game", game_id).Warn("failed to start game")
				return
			}
			for _, player := range players {
				game.AddPlayer(player.User_id, player.Username)
			}
			if err := game.Start(); err != nil {
				s.Emit("error-message", "Unable to start game")
				return
			}

			playersJson, err := json.Marshal(players)
			if err != nil {
				logrus.WithError(err).Warn("failed encoding players")
				return
			}
			server.BroadcastToRoom("/", game_id, "game-start", string(playersJson))
		}
		forward(game_id, game)
		server.BroadcastToRoom("/", game_id, "change-turn", game.CurrentTurn())
	})

	server.OnEvent("/", "connect-wallet", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		account := result["account"]
		if account == "" {
			s.Emit("error-message", "No wallet account")
			return
		}
		// Without an external chain configured the contract runs in
		// process; the mirror's behavior is identical either way.
		if _, err := game.Mirror().Activate(ledger.NewMemLedger(account)); err != nil {
			s.Emit("error-message", "Wallet connection failed")
			return
		}
		s.Emit("wallet-connected", account)
	})

	server.OnEvent("/", "roll-dice", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		if _, err := game.RollDice(result["user_id"]); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "request-buy", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		user_id := result["user_id"]
		if game.CurrentTurn() != user_id {
			s.Emit("error-message", "Not your turn")
			return
		}
		player, err := game.Snapshot(user_id)
		if err != nil {
			s.Emit("error-message", err.Error())
			return
		}
		if err := game.Purchase(user_id, player.Pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "upgrade-building", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		card_pos, err := strconv.Atoi(result["card_pos"])
		if err != nil {
			s.Emit("error-message", "Bad position")
			return
		}
		if err := game.Upgrade(result["user_id"], card_pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "mint-building", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		card_pos, err := strconv.Atoi(result["card_pos"])
		if err != nil {
			s.Emit("error-message", "Bad position")
			return
		}
		fee := ledger.MintFee
		if raw, ok := result["fee"]; ok {
			fee, err = strconv.ParseUint(raw, 10, 64)
			if err != nil {
				s.Emit("error-message", "Bad mint fee")
				return
			}
		}
		token_id, err := game.Mint(result["user_id"], card_pos, fee)
		if err != nil {
			s.Emit("error-message", err.Error())
			return
		}
		s.Emit("nft-minted", strconv.FormatUint(token_id, 10))
	})

	server.OnEvent("/", "pay-rent", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		card_pos, err := strconv.Atoi(result["card_pos"])
		if err != nil {
			s.Emit("error-message", "Bad position")
			return
		}
		if _, err := game.PayRent(result["user_id"], card_pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "pay-bail", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		if err := game.PayBail(result["user_id"]); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "end-turn", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		if _, err := game.EndTurn(result["user_id"]); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "reset-game", func(s socketio.Conn, jsonStr string) {
		result := decode(jsonStr)
		game, ok := manager.Get(result["game_id"])
		if !ok {
			s.Emit("error-message", "Game not started")
			return
		}
		game.Reset()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logrus.WithError(e).Warn("socket error")
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		for _, room := range s.Rooms() {
			server.BroadcastToRoom("/", room, "player-left")
		}
		s.LeaveAll()
	})

	go server.Serve()
	defer server.Close()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	addr := os.Getenv("SOCKET_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	http.ListenAndServe(addr, c.Handler(mux))
}
