package linkprovider

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iho/gobank/internal/domain"
)

// SandboxPublicTokenPrefix marks public tokens the sandbox accepts.
const SandboxPublicTokenPrefix = "public-sandbox-"

// SandboxProvider is an in-process provider for local development. It
// issues random link tokens and accepts any public token carrying
// SandboxPublicTokenPrefix.
type SandboxProvider struct {
	ttl time.Duration
	now func() time.Time
}

// NewSandboxProvider creates a SandboxProvider.
func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{ttl: 4 * time.Hour, now: time.Now}
}

// CreateLinkToken implements usecase.LinkProvider.
func (s *SandboxProvider) CreateLinkToken(_ context.Context, _ string) (string, time.Time, error) {
	return "link-sandbox-" + uuid.NewString(), s.now().Add(s.ttl), nil
}

// ExchangePublicToken implements usecase.LinkProvider.
func (s *SandboxProvider) ExchangePublicToken(_ context.Context, publicToken string) (string, string, error) {
	suffix, ok := strings.CutPrefix(publicToken, SandboxPublicTokenPrefix)
	if !ok || suffix == "" {
		return "", "", domain.ErrInvalidPublicToken
	}
	return "access-sandbox-" + uuid.NewString(), "item-" + suffix, nil
}
