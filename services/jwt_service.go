package services

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gorm.io/gorm"

	"ehrm-server/config"
	"ehrm-server/models"
	"ehrm-server/types"
)

// JWTService handles JWT token operations
type JWTService struct {
	db *gorm.DB
}

// NewJWTService creates a new JWT service backed by the given database
func NewJWTService(db *gorm.DB) *JWTService {
	return &JWTService{db: db}
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// GenerateTokenPair generates both access and refresh tokens
func (js *JWTService) GenerateTokenPair(user *models.User, deviceID, userAgent, ipAddress string) (*TokenPair, error) {
	accessToken, expiresIn, err := js.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := js.generateRefreshToken(user.ID, deviceID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
	}, nil
}

// generateAccessToken generates a short-lived access token
func (js *JWTService) generateAccessToken(user *models.User) (string, int64, error) {
	claims := &types.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(config.AppConfig.JWT.ExpiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "ehrm-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.AppConfig.JWT.Secret))
	if err != nil {
		return "", 0, err
	}

	expiresIn := int64(config.AppConfig.JWT.ExpiryHours * 3600) // Convert to seconds
	return tokenString, expiresIn, nil
}

// generateRefreshToken generates a long-lived refresh token and stores it
func (js *JWTService) generateRefreshToken(userID uint, deviceID, userAgent, ipAddress string) (string, error) {
	tokenString := uuid.NewString() + uuid.NewString()

	refreshToken := &models.RefreshToken{
		Token:     tokenString,
		UserID:    userID,
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour), // 30 days
		DeviceID:  deviceID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := js.db.Create(refreshToken).Error; err != nil {
		return "", err
	}

	return tokenString, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new token pair.
// The used refresh token is revoked (rotation).
func (js *JWTService) RefreshAccessToken(refreshTokenString, deviceID, userAgent, ipAddress string) (*TokenPair, error) {
	var refreshToken models.RefreshToken
	if err := js.db.Where("token = ?", refreshTokenString).First(&refreshToken).Error; err != nil {
		return nil, errors.New("invalid refresh token")
	}

	if !refreshToken.IsValid() {
		return nil, errors.New("refresh token expired or revoked")
	}

	var user models.User
	if err := js.db.First(&user, refreshToken.UserID).Error; err != nil {
		return nil, errors.New("user not found")
	}
	if !user.IsActive {
		return nil, errors.New("user account is deactivated")
	}

	refreshToken.Revoke()
	if err := js.db.Save(&refreshToken).Error; err != nil {
		log.Printf("❌ Failed to revoke refresh token: %v", err)
	}

	return js.GenerateTokenPair(&user, deviceID, userAgent, ipAddress)
}

// RevokeAllUserTokens revokes every refresh token of a user (logout-all)
func (js *JWTService) RevokeAllUserTokens(userID uint) error {
	return js.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (js *JWTService) CleanupExpiredTokens() error {
	result := js.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("🧹 Cleaned up %d expired refresh tokens", result.RowsAffected)
	}
	return nil
}

// HashPassword hashes a password using bcrypt
func (js *JWTService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with its hash
func (js *JWTService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
