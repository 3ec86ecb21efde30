package test

import (
	"context"
	"net/http"
	"testing"

	goGrant "github.com/MrEthical07/goGrant"
	"github.com/MrEthical07/goGrant/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goGrant.New

	var _ *goGrant.Engine
	var _ goGrant.Config
	var _ goGrant.Principal
	var _ goGrant.TokenPair
	var _ goGrant.IdentityVerifier
	var _ goGrant.AuditSink
	var _ goGrant.Clock

	var _ error = goGrant.ErrInvalidCredentials
	var _ error = goGrant.ErrTokenMalformed
	var _ error = goGrant.ErrSignatureInvalid
	var _ error = goGrant.ErrTokenExpired
	var _ error = goGrant.ErrRefreshReuse
	var _ error = goGrant.ErrRefreshInvalid
	var _ error = goGrant.ErrFamilyRevoked

	var _ func(*goGrant.Engine) func(http.Handler) http.Handler = middleware.Guard
	var _ func(string) func(http.Handler) http.Handler = middleware.RequireScope

	var _ func(*goGrant.Engine, context.Context, string, string) (*goGrant.TokenPair, error) = (*goGrant.Engine).PasswordGrant
	var _ func(*goGrant.Engine, context.Context, string) (*goGrant.TokenPair, error) = (*goGrant.Engine).RefreshGrant
	var _ func(*goGrant.Engine, context.Context, string) (*goGrant.Principal, error) = (*goGrant.Engine).Authenticate
	var _ func(*goGrant.Engine, context.Context, string) error = (*goGrant.Engine).Revoke
	var _ func(*goGrant.Engine, context.Context, string) error = (*goGrant.Engine).RevokeByToken
}
