package routes

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ehrm-server/database"
	"ehrm-server/middleware"
	"ehrm-server/models"
	"ehrm-server/services"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService(database.DB)

	// Self-registration. Accounts always start as karyawan; HR and direktur
	// roles are only assigned through employee administration.
	router.POST("/register", func(c *gin.Context) {
		var req struct {
			FullName    string `json:"full_name" binding:"required,max=255"`
			Email       string `json:"email" binding:"required,email"`
			Password    string `json:"password" binding:"required,min=8"`
			PhoneNumber string `json:"phone_number" binding:"max=20"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		if ok, problems := middleware.ValidatePasswordStrength(req.Password); !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": problems,
			})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Email already registered",
				"message": "An account with this email already exists",
			})
			return
		}

		hashed, err := jwtService.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
			return
		}

		now := time.Now()
		user := models.User{
			FullName:     req.FullName,
			Email:        email,
			PhoneNumber:  req.PhoneNumber,
			PasswordHash: hashed,
			Role:         models.RoleKaryawan,
			IsActive:     true,
			JoinedAt:     &now,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ Registration failed for %s: %v", email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(&user, c.GetHeader("X-Device-ID"), c.GetHeader("User-Agent"), c.ClientIP())
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Account created, please log in",
			})
			return
		}

		log.Printf("✅ New account registered: %s", email)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"user":    user,
			"tokens":  tokenPair,
		})
	})

	// Login endpoint
	router.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		var user models.User
		if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !jwtService.CheckPassword(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Account deactivated",
				"message": "Contact HR to reactivate your account",
			})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(&user, c.GetHeader("X-Device-ID"), c.GetHeader("User-Agent"), c.ClientIP())
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
			"tokens":  tokenPair,
		})
	})

	// Refresh token endpoint
	router.POST("/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		tokenPair, err := jwtService.RefreshAccessToken(req.RefreshToken, c.GetHeader("X-Device-ID"), c.GetHeader("User-Agent"), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid refresh token",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tokens":  tokenPair,
		})
	})
}

// RegisterProtectedAuthRoutes registers auth routes that require a session
func RegisterProtectedAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService(database.DB)

	// Current user profile
	router.GET("/me", func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
		})
	})

	// Logout everywhere: revoke all refresh tokens
	router.POST("/logout", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if err := jwtService.RevokeAllUserTokens(userID); err != nil {
			log.Printf("❌ Failed to revoke tokens for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Logged out",
		})
	})

	// Change password
	router.POST("/change-password", func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}

		var req struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if !jwtService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Current password is incorrect",
			})
			return
		}

		if ok, problems := middleware.ValidatePasswordStrength(req.NewPassword); !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": problems,
			})
			return
		}

		hashed, err := jwtService.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
			return
		}

		if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hashed).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}

		// Force re-login on all other devices
		if err := jwtService.RevokeAllUserTokens(user.ID); err != nil {
			log.Printf("⚠️ Could not revoke refresh tokens after password change: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Password changed",
		})
	})
}
