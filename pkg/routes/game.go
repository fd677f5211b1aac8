package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ilianxin/RichMan-Web3/app/controllers"
)

func GameRoutes(a *fiber.App) {
	route := a.Group("/game")
	route.Post("create", controllers.CreateGame)
	route.Get("/verify", controllers.VerifyGame)
	route.Get("/all", controllers.GetAllAvailGames)
	route.Get("/find", controllers.FindAvailGame)
	route.Get("/board", controllers.GetBoard)
}
