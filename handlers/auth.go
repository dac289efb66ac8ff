// handlers/auth.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mechanicalh600-lang/CheckList/config"
	"github.com/mechanicalh600-lang/CheckList/middleware"
	"github.com/mechanicalh600-lang/CheckList/models"
)

type loginReq struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Org       string    `json:"org"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

// Login authenticates an inspector by personnel code and password.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	var u models.DefinedUser
	if err := config.DB.Where("code = ?", req.Code).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := middleware.GenerateToken(u.ID.String(), u.Role, u.Name, u.Code)
	if err != nil {
		http.Error(w, "couldn't create token", http.StatusInternalServerError)
		return
	}
	out := loginResp{
		Token: token,
		User: userPayload{
			ID:        u.ID,
			Name:      u.Name,
			Code:      u.Code,
			Org:       u.Org,
			Role:      u.Role,
			AvatarURL: u.AvatarURL,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// GetCurrentUser returns the profile of the token holder.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var u models.DefinedUser
	if err := config.DB.Where("code = ?", claims.Code).First(&u).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userPayload{
		ID:        u.ID,
		Name:      u.Name,
		Code:      u.Code,
		Org:       u.Org,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	})
}
