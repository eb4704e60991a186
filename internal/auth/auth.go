// Package auth reads the identity forwarded by the login proxy and decides admin rights.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
	"ultrafantasi/internal/util"
)

const (
	HeaderSubject   = "X-Auth-Subject"
	HeaderEmail     = "X-Auth-Email"
	HeaderName      = "X-Auth-Name"
	HeaderSignature = "X-Auth-Signature"
)

var ErrNoIdentity = fmt.Errorf("missing or invalid identity: %w", apperr.ErrUnauthorized)

// Identity is the account the login proxy authenticated.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

func (id Identity) message() string {
	return id.Subject + "|" + id.Email + "|" + id.Name
}

// Sign returns the signature the proxy puts in HeaderSignature.
func Sign(secret string, id Identity) string {
	return util.HMACSHA256Hex(secret, id.message())
}

// SetHeaders writes a signed identity onto r.
func SetHeaders(r *http.Request, secret string, id Identity) {
	r.Header.Set(HeaderSubject, id.Subject)
	r.Header.Set(HeaderEmail, id.Email)
	r.Header.Set(HeaderName, id.Name)
	r.Header.Set(HeaderSignature, Sign(secret, id))
}

// FromRequest verifies the identity headers on r.
func FromRequest(r *http.Request, secret string) (Identity, error) {
	id := Identity{
		Subject: strings.TrimSpace(r.Header.Get(HeaderSubject)),
		Email:   strings.TrimSpace(r.Header.Get(HeaderEmail)),
		Name:    strings.TrimSpace(r.Header.Get(HeaderName)),
	}
	if id.Subject == "" || secret == "" {
		return Identity{}, ErrNoIdentity
	}
	if !util.ValidHMAC(secret, id.message(), r.Header.Get(HeaderSignature)) {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// Admins grants the admin capability by role or by email allow-list.
type Admins struct {
	Emails map[string]bool
}

func (a Admins) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	if u.Role == models.RoleAdmin {
		return true
	}
	return a.Emails[strings.ToLower(strings.TrimSpace(u.Email))]
}

// ExportToken is the query token that unlocks the CSV leaderboard export.
func ExportToken(secret string) string {
	return util.HMACSHA256Hex(secret, "export:leaderboard")
}

func ValidExportToken(secret, token string) bool {
	return util.ValidHMAC(secret, "export:leaderboard", token)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the authenticated user stored by WithUser, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKey{}).(*models.User)
	return u
}
