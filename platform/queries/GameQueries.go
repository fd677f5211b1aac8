package queries

import (
	"github.com/go-pg/pg/v10"
	"github.com/sirupsen/logrus"

	"github.com/ilianxin/RichMan-Web3/app/models"
)

// Lobby queries against postgres. In-session game state is owned by the
// session package and persisted through the redis snapshot store.

func VerifyGame(id string, db *pg.DB) bool {
	game := &models.Game{Id: id}
	err := db.Model(game).WherePK().Select()
	return err == nil
}

func GetUserData(user_id string, db *pg.DB) (models.User, error) {
	user := &models.User{Id: user_id}
	err := db.Model(user).WherePK().Select()
	return *user, err
}

func CreatePlayer(player models.Player, db *pg.DB) error {
	_, err := db.Model(&player).Insert()
	return err
}

func DeletePlayer(user_id string, game_id string, db *pg.DB) error {
	player := new(models.Player)
	_, err := db.Model(player).Where("user_id = ? and game_id = ?", user_id, game_id).Delete()
	if err != nil {
		return err
	}
	CheckDB(game_id, db)
	return nil
}

func GamePlayers(game_id string, db *pg.DB) ([]models.Player, error) {
	var players []models.Player
	err := db.Model(&players).Where("game_id = ?", game_id).Select()
	return players, err
}

// CheckDB drops a game row once its last player has left.
func CheckDB(game_id string, db *pg.DB) {
	players, err := GamePlayers(game_id, db)
	if err != nil || len(players) == 0 {
		game := new(models.Game)
		if _, err := db.Model(game).Where("id = ?", game_id).Delete(); err != nil {
			logrus.WithError(err).WithField("game", game_id).Warn("failed deleting empty game")
		}
	}
}

// StartGame flips the lobby row to in-progress and returns the players who
// will take part. Requires at least one registered player.
func StartGame(game_id string, db *pg.DB) ([]models.Player, error) {
	players, err := GamePlayers(game_id, db)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, pg.ErrNoRows
	}

	game := &models.Game{Id: game_id}
	if _, err := db.Model(game).WherePK().Set("status = ?", "in progress").Update(); err != nil {
		return nil, err
	}
	return players, nil
}
