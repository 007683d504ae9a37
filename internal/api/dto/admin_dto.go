package dto

import (
	"time"

	"github.com/desaconnect/complaint-service/internal/domain"
)

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse echoes the session expiry; the token itself
// travels in the cookie.
type AdminLoginResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AddAdminRequest payload. Password is optional.
type AddAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// BatchAddAdminsRequest payload.
type BatchAddAdminsRequest struct {
	Emails []string `json:"emails"`
}

// AdminEntryResponse is one roster row. Password hashes never leave
// the service.
type AdminEntryResponse struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAdminEntryResponse maps a roster entry.
func NewAdminEntryResponse(entry *domain.AdminEntry) AdminEntryResponse {
	return AdminEntryResponse{Email: entry.Email, CreatedAt: entry.CreatedAt}
}
