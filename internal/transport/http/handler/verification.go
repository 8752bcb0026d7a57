package handler

import (
	"context"
	"net/http"

	"github.com/ErlanBelekov/account-model/internal/repository"
	"github.com/gin-gonic/gin"
)

type emailVerifier interface {
	RequestEmailVerification(ctx context.Context, username string) error
	ConfirmEmailVerification(ctx context.Context, username, rawToken string) (*repository.UserRecord, error)
}

type confirmVerificationRequest struct {
	Token string `json:"token" binding:"required,max=128"`
}

// POST /users/:username/email/verification
// Emails a single-use token to the current address.
func (h *AccountHandler) RequestEmailVerification(c *gin.Context) {
	if err := h.verifier.RequestEmailVerification(c.Request.Context(), c.Param("username")); err != nil {
		h.fail(c, "request email verification", err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification email requested"})
}

// POST /users/:username/email/verify
func (h *AccountHandler) ConfirmEmailVerification(c *gin.Context) {
	var req confirmVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondRecord(c, "confirm email verification", func(ctx context.Context, username string) (*repository.UserRecord, error) {
		return h.verifier.ConfirmEmailVerification(ctx, username, req.Token)
	})
}
