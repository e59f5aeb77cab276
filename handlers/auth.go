package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"orgdash/config"
	"orgdash/database"
	"orgdash/middleware"
	"orgdash/models"
)

type AuthHandler struct {
	config *config.Config
	repo   database.Repository
	log    *logrus.Logger
}

func NewAuthHandler(cfg *config.Config, repo database.Repository, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		repo:   repo,
		log:    log,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.repo.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if user.IsDisabled() {
		writeError(w, http.StatusUnauthorized, "account is not active")
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		h.log.WithError(err).Error("failed to generate token")
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.log.WithField("user_id", user.ID).Info("user logged in")
	writeSuccess(w, models.LoginResponse{Token: token, User: *user})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
