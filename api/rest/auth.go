package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
	mw "github.com/mcladder/bedboard/middleware"
	"github.com/mcladder/bedboard/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionPrefix = "session:"
	bcryptCost    = 12
)

var (
	errBadCredentials = errors.New("invalid credentials")
	errAccountBanned  = errors.New("account banned")
	errNameTaken      = errors.New("username already taken")
)

// AuthHandler serves login, logout and token refresh. Logging in with an
// unknown username registers it, so community members do not need a
// separate signup step before claiming their leaderboard row.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
}

func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.authenticate(req.Username, req.Password)
	switch {
	case errors.Is(err, errBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case errors.Is(err, errAccountBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		return
	case errors.Is(err, errNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	token, err := h.openSession(c, acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	now := time.Now()
	_ = h.db.Model(acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
	})
}

// authenticate looks the account up by username, registering it when
// absent and verifying the password when present.
func (h *AuthHandler) authenticate(username, password string) (*model.Account, error) {
	var acc model.Account
	err := h.db.Where("username = ?", username).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return h.register(username, password)
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	if acc.Status == 0 {
		return nil, errAccountBanned
	}
	return &acc, nil
}

func (h *AuthHandler) register(username, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	acc := model.Account{
		Username:     username,
		PasswordHash: string(hash),
		Status:       1,
	}
	if err := h.db.Create(&acc).Error; err != nil {
		// Concurrent registration of the same name.
		if isUniqueViolation(err) {
			return nil, errNameTaken
		}
		return nil, err
	}
	return &acc, nil
}

// openSession issues a JWT and records it in the session cache, which
// the auth middleware consults on every request.
func (h *AuthHandler) openSession(c *gin.Context, accountID int64) (string, error) {
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
	defer cancel()
	_ = h.cache.Set(ctx, sessionPrefix+token, strconv.FormatInt(accountID, 10), h.sec.JWTTTLH)
	return token, nil
}

func (h *AuthHandler) closeSession(c *gin.Context, token string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
	defer cancel()
	_ = h.cache.Del(ctx, sessionPrefix+token)
}

func requestToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := requestToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	h.closeSession(c, token)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The old session dies with the
// old token; clients swap to the returned one.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.closeSession(c, requestToken(c))

	token, err := h.openSession(c, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// isUniqueViolation detects duplicate-key errors across the supported
// database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
