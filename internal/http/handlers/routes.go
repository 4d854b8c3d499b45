package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// AvatarPath is the one route allowed a body above the global limit.
const AvatarPath = "/api/v1/profile/avatar"

// Register mounts pages, the JSON API and the chat stream. Session binding
// comes first; cross-cutting middleware (csrf, limiter) is the caller's.
// loginGuards run before the login POST.
func Register(app fiber.Router, d *Deps, loginGuards ...fiber.Handler) {
	app.Use(Session(d.Store))

	// Public pages
	app.Get("/", d.SearchHandler.Home)
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Get("/compare", d.ProductHandler.ComparePage)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", append(loginGuards, d.AuthHandler.Login)...)
	app.Post("/logout", d.AuthHandler.Logout)

	// Signed-in pages
	auth := RequireSession()
	app.Get("/cart", auth, d.CartHandler.View)
	app.Get("/orders/:id", auth, d.OrderHandler.Detail)
	app.Get("/messages", auth, d.MessageHandler.Page)
	app.Get("/messages/:id", auth, d.MessageHandler.Page)
	app.Get("/profile", auth, d.ProfileHandler.Page)
	app.Get("/moderation", auth, d.ModerationHandler.PendingPage)
	app.Get("/moderation/products/:id", auth, d.ModerationHandler.DetailPage)
	app.Get("/moderation/highlights", auth, d.ModerationHandler.BoardPage)
	app.Get("/admin/categories", auth, d.CategoryHandler.Page)
	app.Get("/admin/discounts", auth, d.AdminHandler.DiscountsPage)
	app.Get("/admin/owner-requests", auth, d.AdminHandler.RequestsPage)

	app.Use("/ws", auth, d.MessageHandler.Upgrade)
	app.Get("/ws/chat/:id", d.MessageHandler.Stream())

	api := app.Group("/api/v1")
	api.Get("/products", d.SearchHandler.List)
	api.Get("/availability", d.InventoryHandler.Check)
	api.Post("/compare", d.ProductHandler.Compare)

	api.Use(auth)
	api.Get("/cart", d.CartHandler.Get)
	api.Post("/cart/items", d.CartHandler.Add)
	api.Patch("/cart/items/quantity", d.CartHandler.Quantity)
	api.Patch("/cart/items/dates", d.CartHandler.Dates)
	api.Delete("/cart/items", d.CartHandler.Remove)
	api.Post("/cart/select", d.CartHandler.Toggle)
	api.Post("/cart/select-all", d.CartHandler.SelectAll)

	api.Get("/orders/:id", d.OrderHandler.Get)

	api.Get("/conversations", d.MessageHandler.List)
	api.Post("/conversations", d.MessageHandler.Start)
	api.Get("/conversations/:id", d.MessageHandler.Room)
	api.Post("/conversations/:id/messages", d.MessageHandler.Send)
	api.Post("/conversations/:id/typing", d.MessageHandler.Typing)

	api.Get("/moderation/pending", d.ModerationHandler.Pending)
	api.Post("/moderation/products/:id/decision", d.ModerationHandler.Decide)
	api.Get("/moderation/highlights", d.ModerationHandler.Board)
	api.Post("/moderation/products/:id/highlight", d.ModerationHandler.Highlight)

	api.Get("/categories/tree", d.CategoryHandler.Tree)
	api.Post("/categories", d.CategoryHandler.Add)
	api.Put("/categories/:id", d.CategoryHandler.Update)
	api.Delete("/categories/:id", d.CategoryHandler.Delete)
	api.Post("/categories/:id/deactivate", d.CategoryHandler.Deactivate)

	api.Get("/discounts", d.AdminHandler.ListDiscounts)
	api.Post("/discounts", d.AdminHandler.CreateDiscount)
	api.Put("/discounts/:id", d.AdminHandler.UpdateDiscount)
	api.Patch("/discounts/:id/active", d.AdminHandler.SetActive)
	api.Patch("/discounts/:id/public", d.AdminHandler.SetPublic)
	api.Post("/discounts/:id/users", d.AdminHandler.Assign)

	api.Get("/owner-requests", d.AdminHandler.ListRequests)
	api.Post("/owner-requests", d.AdminHandler.CreateRequest)
	api.Patch("/owner-requests/:id/approve", d.AdminHandler.ApproveRequest)
	api.Patch("/owner-requests/:id/reject", d.AdminHandler.RejectRequest)

	api.Get("/profile", d.ProfileHandler.Get)
	api.Put("/profile/password", d.ProfileHandler.ChangePassword)
	api.Put("/profile/avatar", d.ProfileHandler.Avatar)
}
