package domain

import "time"

// AdminEntry is one row of the admin allow-list. Email is stored
// normalized (trimmed, lower-cased) and acts as the key.
type AdminEntry struct {
	Email        string
	PasswordHash *string
	CreatedAt    time.Time
}

// IdentitySource records which credential resolved the caller.
type IdentitySource string

const (
	SourceAdminSession  IdentitySource = "admin_session"
	SourceIdentityToken IdentitySource = "identity_token"
)

// AdminIdentity is the resolved caller on the admin surface.
type AdminIdentity struct {
	Email     string
	Source    IdentitySource
	SessionID string
}
