package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/account-model/internal/transport/http/handler"
	"github.com/ErlanBelekov/account-model/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, accountHandler *handler.AccountHandler, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(jwtKey)

	users := r.Group("/users", authMW)
	users.POST("", accountHandler.Register)

	// Only the owner may read or change a user.
	self := users.Group("/:username", middleware.RequireSelf())
	self.GET("", accountHandler.Get)
	self.PUT("/name", accountHandler.Rename)
	self.PUT("/email", accountHandler.ChangeEmail)
	self.POST("/email/verification", accountHandler.RequestEmailVerification)
	self.POST("/email/verify", accountHandler.ConfirmEmailVerification)
	self.PUT("/phone", accountHandler.ChangePhone)
	self.PUT("/payment-method", accountHandler.ChangePaymentMethod)
	self.POST("/contact", accountHandler.Contact)
	self.POST("/charge", accountHandler.Charge)

	return r
}
