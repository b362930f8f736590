package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyncarl8-oss/signalix-ai/internal/auth"
)

// adminSecretHeader guards the revoke endpoint.
const adminSecretHeader = "x-admin-secret"

// resolveUserID prefers the verified token identity, then an explicit query
// parameter, then the development identity.
func (s *Server) resolveUserID(c *gin.Context) string {
	if token := c.GetHeader(auth.UserTokenHeader); token != "" {
		return s.verifier.ResolveUserID(token)
	}
	if userID := c.Query("userId"); userID != "" {
		return userID
	}
	return s.verifier.DevUserID()
}

// handleGetCredits returns the balance, lazily initializing it on first access.
func (s *Server) handleGetCredits(c *gin.Context) {
	userID := s.resolveUserID(c)

	uc, err := s.ledger.GetCredits(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("credit lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load credits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":             uc.UserID,
		"credits":            uc.Credits,
		"hasUnlimitedAccess": uc.HasUnlimitedAccess,
	})
}

type purchaseSuccessRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// handlePurchaseSuccess grants unlimited access after a completed purchase.
func (s *Server) handlePurchaseSuccess(c *gin.Context) {
	var req purchaseSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := s.ledger.GrantUnlimited(c.Request.Context(), req.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("grant unlimited failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant access"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type revokeRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// handleRevokeUnlimited removes unlimited access. Called when the membership
// check reports no active subscription; guarded by the admin secret.
func (s *Server) handleRevokeUnlimited(c *gin.Context) {
	if !auth.CheckAdminSecret(s.adminHash, c.GetHeader(adminSecretHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := s.ledger.RevokeUnlimited(c.Request.Context(), req.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("revoke unlimited failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke access"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type upsertProfileRequest struct {
	UserID    string  `json:"userId" binding:"required"`
	Username  string  `json:"username" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	AvatarURL *string `json:"avatarUrl"`
}

// handleUpsertProfile stores the user's display profile.
func (s *Server) handleUpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, username and name are required"})
		return
	}

	if err := s.ledger.UpsertProfile(c.Request.Context(), req.UserID, req.Username, req.Name, req.AvatarURL); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("profile upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
