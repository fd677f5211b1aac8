package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ilianxin/RichMan-Web3/app/controllers"
)

func AuthRoutes(a *fiber.App) {
	route := a.Group("/user")

	route.Post("login", controllers.Login)
	route.Post("register", controllers.CreateUser)
}
