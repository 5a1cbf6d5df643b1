package handler

import (
	"database/sql" // sentinel errors surfaced by the repository layer
	"log"          // server-side detail for failures reported generically
	"net/http"     // HTTP status codes and primitives
	"strings"      // string normalization utilities
	"time"         // token expiry timestamps

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/model"
	"github.com/dangoo/shop-backend/internal/repository"
	"github.com/dangoo/shop-backend/internal/utils"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// Signup validates the registration form and creates the account.  The
// password/confirmPassword comparison happens before any data-store
// call; a mismatch never causes a database write.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return jsonFail(c, http.StatusBadRequest, "email and password are required")
	}
	if req.Password != req.ConfirmPassword {
		return jsonFail(c, http.StatusBadRequest, "Passwords do not match")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Email, req.Password, model.RoleCustomer, h.Cfg.BcryptCost); err != nil {
		if err == repository.ErrEmailExists {
			return jsonFail(c, http.StatusBadRequest, "Registration failed")
		}
		log.Printf("signup: create user: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Registration failed")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "Registration successful"})
}

// Login verifies the credential against the stored bcrypt hash and
// issues a token pair.  Missing accounts and wrong passwords are
// indistinguishable to the client.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return jsonFail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return jsonFail(c, http.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("login: query user: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "login failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonFail(c, http.StatusUnauthorized, "Invalid email or password")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		log.Printf("login: issue access token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "login failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		log.Printf("login: issue refresh token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "login failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		log.Printf("login: store refresh token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "login failed")
	}

	return jsonOK(c, http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    userPart{ID: u.ID, Email: u.Email},
		"access":  tokenPart{Token: access.Token, Expires: access.Exp},
		"refresh": tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a
// fresh pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonFail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return jsonFail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("refresh: load user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "refresh failed")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		log.Printf("refresh: issue access token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "refresh failed")
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		log.Printf("refresh: issue refresh token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		log.Printf("refresh: store refresh token: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "refresh failed")
	}

	return jsonOK(c, http.StatusOK, echo.Map{
		"user":    userPart{ID: u.ID, Email: u.Email},
		"access":  tokenPart{Token: access.Token, Expires: access.Exp},
		"refresh": tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// ChangePassword verifies the old password and stores a new hash.
// Protected route; the user comes from the JWT claims.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonFail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return jsonFail(c, http.StatusBadRequest, "old_password and new_password are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("change password: load user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "password change failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return jsonFail(c, http.StatusForbidden, "wrong password")
	}
	if err := h.Users.UpdatePassword(ctx, userID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		log.Printf("change password: update user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "password change failed")
	}
	// Old sessions should not survive a password change.
	_ = h.Tokens.RevokeAllForUser(ctx, userID)
	return jsonOK(c, http.StatusOK, echo.Map{"message": "password changed"})
}

// DeleteAccount removes the authenticated user's account together with
// their cart lines and refresh tokens.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonFail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, userID); err != nil {
		if err == sql.ErrNoRows {
			return jsonFail(c, http.StatusNotFound, "account not found")
		}
		log.Printf("delete account %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "account deletion failed")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "account deleted"})
}
