package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

// Router holds every handler the API exposes.
type Router struct {
	Auth      *AuthHandler
	Google    *GoogleOAuthHandler
	Profile   *ProfileHandler
	Dashboard *DashboardHandler
	Category  *CategoryHandler
	Skill     *SkillHandler
	Booking   *BookingHandler
	Chat      *ChatHandler
	Admin     *AdminHandler

	JWTSecret     string
	Profiles      middleware.ProfileLookup
	AuthRateRPS   float64
	AuthRateBurst int

	// Health is optional; nil reports ok unconditionally.
	Health func(ctx context.Context) error
}

func (r *Router) Mount(app *fiber.App) {
	app.Get("/healthz", r.healthz)
	app.Get("/metrics", metrics.Handler())

	session := []fiber.Handler{
		middleware.OptionalSession(r.JWTSecret),
		middleware.AttachJWTLocals(),
		middleware.ResolveProfile(r.Profiles),
	}

	api := app.Group("/api", session...)
	authOnly := middleware.RequireSession()
	provider := middleware.RequireRoles(models.RoleProvider)
	limit := middleware.RateLimit(r.AuthRateRPS, r.AuthRateBurst)

	// auth
	api.Post("/auth/signup", r.Auth.SignUp)
	api.Post("/auth/login", limit, r.Auth.Login)
	api.Post("/auth/logout", r.Auth.Logout)
	api.Post("/auth/forgot-password", limit, r.Auth.ForgotPassword)
	api.Post("/auth/reset-password", limit, r.Auth.ResetPassword)
	api.Get("/auth/verify", r.Auth.Verify)
	api.Post("/auth/resend-verification", limit, r.Auth.ResendVerification)
	if r.Google != nil {
		api.Get("/auth/google/start", r.Google.GoogleStart)
		api.Get("/auth/google/callback", r.Google.GoogleCallback)
	}

	api.Get("/me", r.Profile.Me)
	api.Get("/dashboard", authOnly, r.Dashboard.GetDashboard)

	api.Get("/profile", authOnly, r.Profile.Get)
	api.Patch("/profile", authOnly, r.Profile.Update)

	// skills
	api.Get("/categories", r.Category.GetCategories)
	api.Get("/skills", r.Skill.List)
	api.Get("/skills/:id", r.Skill.Get)
	api.Post("/provider/skills", provider, r.Skill.Create)
	api.Get("/provider/skills", provider, r.Skill.ListMine)

	// bookings; Create answers 401 itself so signed-out visitors get the envelope
	api.Post("/bookings", r.Booking.Create)
	api.Get("/bookings", authOnly, r.Booking.List)
	api.Get("/bookings/earnings", provider, r.Booking.Earnings)
	api.Get("/bookings/payments", authOnly, r.Booking.Payments)
	api.Get("/bookings/calendar", authOnly, r.Booking.Calendar)
	api.Get("/bookings/:id", authOnly, r.Booking.Get)
	api.Patch("/bookings/:id/status", authOnly, r.Booking.UpdateStatus)

	// chats
	chats := api.Group("/chats", authOnly)
	chats.Post("/", r.Chat.CreateOrGet)
	chats.Get("/", r.Chat.List)
	chats.Get("/unread", r.Chat.UnreadTotal)
	chats.Get("/:id", r.Chat.Get)
	chats.Get("/:id/messages", r.Chat.Messages)
	chats.Post("/:id/messages", r.Chat.Send)
	chats.Patch("/:id/read", r.Chat.MarkRead)

	// admin
	adm := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	adm.Get("/users", r.Admin.Users)
	adm.Get("/skills", r.Admin.Skills)
	adm.Get("/export.xlsx", r.Admin.Export)

	// sockets authenticate from the cookie or ?token= before upgrading
	ws := app.Group("/ws", session[:2]...)
	ws.Get("/chats/:id", r.Chat.UpgradeChat, websocket.New(r.Chat.ChatSocket))
	ws.Get("/notifications", r.Chat.UpgradeNotifications, websocket.New(r.Chat.NotificationSocket))
}

func (r *Router) healthz(c *fiber.Ctx) error {
	if r.Health != nil {
		if err := r.Health(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
