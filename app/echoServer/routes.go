package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	authctrl "urbandrive/app/echoServer/controller/auth"
	bookingctrl "urbandrive/app/echoServer/controller/booking"
	loyaltyctrl "urbandrive/app/echoServer/controller/loyalty"
	"urbandrive/app/echoServer/jwtx"
)

type C struct {
	Auth      *authctrl.Controller
	Booking   *bookingctrl.Controller
	Loyalty   *loyaltyctrl.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	auth.Use(extractClaims)

	// Bookings
	auth.GET("/bookings/check-availability", c.Booking.CheckAvailability)
	auth.POST("/bookings", c.Booking.Create)
	auth.GET("/bookings/my-bookings", c.Booking.MyBookings)
	auth.GET("/bookings/:id", c.Booking.Detail)

	// Loyalty
	auth.GET("/loyalty/status", c.Loyalty.Status)
	auth.POST("/loyalty/redeem", c.Loyalty.Redeem)

	// Admin endpoints
	admin := auth.Group("", requireAdmin)
	admin.GET("/bookings", c.Booking.ListAll)
	admin.PATCH("/bookings/:id", c.Booking.UpdateStatus)
}

// extractClaims pulls the verified token apart and stores user_id and role
// for handlers.
func extractClaims(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tokenObj := ctx.Get("user")
		if tokenObj == nil {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
		}

		claims, ok := tokenObj.(jwt.MapClaims)
		if !ok {
			if tok, okTok := tokenObj.(*jwt.Token); okTok {
				claims, ok = tok.Claims.(jwt.MapClaims)
			}
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
			}
		}

		sub, ok := claims["sub"].(float64)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
		}
		ctx.Set("user_id", int64(sub))

		if role, ok := claims["role"].(string); ok {
			ctx.Set("role", role)
		}
		return next(ctx)
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !jwtx.IsAdmin(ctx) {
			return ctx.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "admin only"})
		}
		return next(ctx)
	}
}
