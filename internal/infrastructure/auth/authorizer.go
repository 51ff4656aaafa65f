package auth

import (
	"context"
	"strings"

	"github.com/iho/gobank/internal/domain"
)

// RoleAuthorizer grants admin rights to identities with the admin role and
// to an optional allow-list of email addresses.
type RoleAuthorizer struct {
	emails map[string]struct{}
}

// NewRoleAuthorizer creates a RoleAuthorizer. Emails are matched
// case-insensitively.
func NewRoleAuthorizer(adminEmails []string) *RoleAuthorizer {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = struct{}{}
		}
	}
	return &RoleAuthorizer{emails: emails}
}

// IsAdmin implements usecase.AdminAuthorizer.
func (a *RoleAuthorizer) IsAdmin(_ context.Context, identity domain.Identity) (bool, error) {
	if identity.UserID == "" {
		return false, nil
	}
	if identity.Role == domain.RoleAdmin {
		return true, nil
	}
	_, ok := a.emails[strings.ToLower(identity.Email)]
	return ok, nil
}
