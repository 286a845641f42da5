package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/cppla/habitrack/config"
	"github.com/cppla/habitrack/middleware"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthController handles authentication related endpoints including local and Google accounts.
type AuthController struct {
	db *gorm.DB
	// fetchGoogleUser is replaced in tests.
	fetchGoogleUser func(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*oauthUser, error)
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, fetchGoogleUser: fetchGoogleUser}
}

type oauthUser struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
}

// Register creates a local account with a bcrypt hashed password and seeds the
// starter habits.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if msg := checkUsername(username); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, msg)
		return
	}
	if !utils.ValidPassword(req.Password) {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password must be 8-72 characters with at least one letter and one digit")
		return
	}
	if a.usernameTaken(ctx, username, 0) {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}
	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Provider:     "local",
	}
	if err := a.createWithStarters(ctx, &user); err != nil {
		utils.Sugar.Errorw("register failed", "username", username, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	a.issueToken(ctx, user)
}

// Login verifies credentials (username or email) and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	login := strings.TrimSpace(req.Username)
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ?", login).Or("email <> '' AND email = ?", login).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	a.issueToken(ctx, user)
}

// Logout revokes the current token until it expires and clears the session cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	utils.BlacklistToken(token, claims.TokenExpiry())
	setSessionCookie(ctx, "", -1)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, userResponse(user))
}

// UpdateUsername renames the current user.
func (a *AuthController) UpdateUsername(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}
	username := strings.TrimSpace(req.Username)
	if msg := checkUsername(username); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, msg)
		return
	}
	if a.usernameTaken(ctx, username, user.ID) {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}
	if err := a.db.WithContext(ctx).Model(&user).Update("username", username).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update username")
		return
	}
	user.Username = username
	utils.Success(ctx, userResponse(user))
}

// UpdatePassword changes the password. Accounts created through Google have no
// password yet and may set one without the current password.
func (a *AuthController) UpdatePassword(ctx *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid request payload")
		return
	}
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}
	if user.HasPassword() && !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "current password is incorrect")
		return
	}
	if !utils.ValidPassword(req.NewPassword) {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password must be 8-72 characters with at least one letter and one digit")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}
	if err := a.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update password")
		return
	}
	utils.Success(ctx, gin.H{"message": "password updated"})
}

// OAuthRedirect returns the Google authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := googleOAuthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, err.Error())
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	utils.Success(ctx, gin.H{"authorization_url": cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), "state": state})
}

// OAuthCallback exchanges the authorization code for a Google identity and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40006, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40007, "invalid or expired state")
		return
	}
	cfg, err := googleOAuthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, err.Error())
		return
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, "failed to exchange code")
		return
	}
	info, err := a.fetchGoogleUser(ctx, cfg, token)
	if err != nil {
		utils.Sugar.Warnw("google user info failed", "error", err)
		utils.Error(ctx, http.StatusBadGateway, 50201, "failed to load google profile")
		return
	}
	user, err := a.findOrCreateOAuthUser(ctx, "google", info)
	if err != nil {
		utils.Sugar.Errorw("persist oauth user failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist user")
		return
	}
	a.issueToken(ctx, *user)
}

func (a *AuthController) issueToken(ctx *gin.Context, user models.User) {
	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	setSessionCookie(ctx, token, int(time.Until(expiresAt).Seconds()))
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       userResponse(user),
	})
}

func setSessionCookie(ctx *gin.Context, token string, maxAge int) {
	secure := ctx.Request.TLS != nil || strings.EqualFold(ctx.GetHeader("X-Forwarded-Proto"), "https")
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AccessTokenCookie, token, maxAge, "/", "", secure, true)
}

func (a *AuthController) currentUser(ctx *gin.Context) (models.User, bool) {
	var user models.User
	userID, ok := requireUser(ctx)
	if !ok {
		return user, false
	}
	if err := a.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
		return user, false
	}
	return user, true
}

// createWithStarters stores the user and the starter habits in one transaction.
func (a *AuthController) createWithStarters(ctx context.Context, user *models.User) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		starters := models.StarterHabits(user.ID)
		return tx.Create(&starters).Error
	})
}

func (a *AuthController) findOrCreateOAuthUser(ctx context.Context, provider string, data *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("provider = ? AND provider_id = ?", provider, data.ID).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"email":      strings.TrimSpace(data.Email),
			"avatar_url": data.AvatarURL,
		}
		if err := a.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			utils.Sugar.Warnw("refresh oauth profile failed", "user_id", user.ID, "error", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username:   a.ensureUniqueUsername(ctx, fallback(data.DisplayName, strings.Split(data.Email, "@")[0]), provider, data.ID),
			Email:      strings.TrimSpace(data.Email),
			Provider:   provider,
			ProviderID: data.ID,
			AvatarURL:  data.AvatarURL,
		}
		if err := a.createWithStarters(ctx, &user); err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, err
	}
}

func googleOAuthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("google oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", cfg.OAuthRedirectBase),
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}

func fetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*oauthUser, error) {
	resp, err := cfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &oauthUser{
		ID:          payload.ID,
		Username:    payload.Email,
		DisplayName: payload.Name,
		Email:       payload.Email,
		AvatarURL:   payload.Picture,
	}, nil
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// checkUsername returns a message when the username is not 3-64 characters of
// letters, digits, '-', '_' or '.'.
func checkUsername(s string) string {
	if l := len([]rune(s)); l < 3 || l > 64 {
		return "username must be 3-64 characters"
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_', r == '.':
		default:
			return "username may only contain letters, digits, '-', '_' and '.'"
		}
	}
	return ""
}

func (a *AuthController) usernameTaken(ctx context.Context, username string, exceptID uint) bool {
	var count int64
	q := a.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return true
	}
	return count > 0
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == ' ':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

func (a *AuthController) ensureUniqueUsername(ctx context.Context, base, provider, id string) string {
	base = sanitizeUsername(base)
	if len(base) < 3 {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, id))
	}
	if len(base) > 56 {
		base = base[:56]
	}

	candidate := base
	for suffix := 1; a.usernameTaken(ctx, candidate, 0); suffix++ {
		if suffix > 100 {
			return fmt.Sprintf("%s_%s", base, uuid.NewString()[:8])
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
	}
	return candidate
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"provider":     user.Provider,
		"avatar_url":   user.AvatarURL,
		"has_password": user.HasPassword(),
		"created_at":   user.CreatedAt,
	}
}
