package auth

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/desaconnect/complaint-service/internal/domain"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

const identityLocalKey = "admin_identity"

// Cookie names for the two identity sources, checked in order.
const (
	AdminSessionCookie  = "admin_session"
	IdentityTokenCookie = "identity_token"
)

// Guard protects the admin surface. Identity resolution order: the
// dedicated admin-session cookie set at login, then the generic
// identity-provider token. The resolved email must pass the roster
// authorizer; an admin-session credential for a deauthorized email is
// revoked as a side effect so the stale cookie cannot retry forever.
type Guard struct {
	tokens      *TokenManager
	sessions    *SessionStore
	authorizer  *Authorizer
	loginPath   string
	landingPath string
	logger      *zap.Logger
}

// NewGuard constructs the route guard.
func NewGuard(tokens *TokenManager, sessions *SessionStore, authorizer *Authorizer, loginPath, landingPath string, logger *zap.Logger) *Guard {
	return &Guard{
		tokens:      tokens,
		sessions:    sessions,
		authorizer:  authorizer,
		loginPath:   loginPath,
		landingPath: landingPath,
		logger:      logger,
	}
}

// RequireAdmin enforces admin authorization for protected routes.
// Side-effect free on the success path.
func (g *Guard) RequireAdmin(c *fiber.Ctx) error {
	identity := g.resolveIdentity(c)
	if identity == nil {
		if wantsHTML(c) {
			target := g.loginPath + "?next=" + url.QueryEscape(c.OriginalURL())
			return c.Redirect(target, fiber.StatusFound)
		}
		return apperrors.NewUnauthorized("authentication required")
	}

	if !g.authorizer.IsAuthorizedAdmin(c.UserContext(), identity.Email) {
		if identity.Source == domain.SourceAdminSession {
			if err := g.sessions.Delete(c.UserContext(), identity.SessionID); err != nil {
				g.logger.Warn("failed to revoke stale admin session", zap.Error(err))
			}
			clearCookie(c, AdminSessionCookie)
		}
		if wantsHTML(c) {
			return c.Redirect(g.landingPath, fiber.StatusFound)
		}
		return apperrors.NewForbidden("admin access required")
	}

	c.Locals(identityLocalKey, identity)
	return c.Next()
}

// resolveIdentity tries each identity source in order and returns the
// first that yields a usable email, or nil.
func (g *Guard) resolveIdentity(c *fiber.Ctx) *domain.AdminIdentity {
	if cookie := c.Cookies(AdminSessionCookie); cookie != "" {
		if claims, err := g.tokens.ParseSessionToken(cookie); err == nil {
			email, err := g.sessions.Get(c.UserContext(), claims.SessionID)
			if err == nil && email == NormalizeEmail(claims.Email) {
				return &domain.AdminIdentity{
					Email:     email,
					Source:    domain.SourceAdminSession,
					SessionID: claims.SessionID,
				}
			}
		}
	}

	if cookie := c.Cookies(IdentityTokenCookie); cookie != "" {
		if claims, err := g.tokens.ParseIdentityToken(cookie); err == nil {
			email := NormalizeEmail(claims.Email)
			if email != "" {
				return &domain.AdminIdentity{
					Email:  email,
					Source: domain.SourceIdentityToken,
				}
			}
		}
	}

	return nil
}

// IdentityFromContext retrieves the authorized admin identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.AdminIdentity, bool) {
	val := c.Locals(identityLocalKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.AdminIdentity)
	return identity, ok
}

func wantsHTML(c *fiber.Ctx) bool {
	return c.Accepts("json", "html") == "html"
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
}
