// Package tenant resolves which restaurant a request acts for.
package tenant

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultValidity is how long an issued credential stays valid.
	DefaultValidity = 7 * 24 * time.Hour

	// DefaultFallbackID is used when nothing identifies the tenant.
	DefaultFallbackID int64 = 1

	// maxClockSkew tolerates credentials issued slightly in the future.
	maxClockSkew = 5 * time.Minute
)

// Context is the authorization context of a request.
type Context struct {
	TenantID      int64
	Identity      string
	Authenticated bool
	// CredentialPresented is set when a credential was sent, valid or not.
	CredentialPresented bool
}

// Anonymous reports whether the request carries no valid credential.
func (c Context) Anonymous() bool {
	return !c.Authenticated
}

// WithClientTenant applies a tenant id supplied in a request body. The
// credential's tenant always wins; only credential-less callers may pick.
func (c Context) WithClientTenant(id *int64) Context {
	if c.CredentialPresented || id == nil || *id <= 0 {
		return c
	}
	c.TenantID = *id
	return c
}

// Resolver turns bearer credentials into authorization contexts and issues
// new credentials.
type Resolver struct {
	Validity   time.Duration
	FallbackID int64
	Now        func() time.Time
}

// NewResolver creates a resolver. Zero values select the defaults.
func NewResolver(validity time.Duration, fallbackID int64) *Resolver {
	if validity <= 0 {
		validity = DefaultValidity
	}
	if fallbackID <= 0 {
		fallbackID = DefaultFallbackID
	}
	return &Resolver{
		Validity:   validity,
		FallbackID: fallbackID,
		Now:        time.Now,
	}
}

// Resolve derives the context from an optional credential and an optional
// explicit tenant parameter.
func (r *Resolver) Resolve(credential, explicitTenant string) Context {
	credential = strings.TrimSpace(credential)

	if credential != "" {
		claims, err := r.decode(credential)
		if err != nil {
			// Invalid credential: anonymous, and the explicit tenant is ignored.
			return Context{TenantID: r.FallbackID, CredentialPresented: true}
		}
		return Context{
			TenantID:            claims.tenantID,
			Identity:            claims.identity,
			Authenticated:       true,
			CredentialPresented: true,
		}
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(explicitTenant), 10, 64); err == nil && id > 0 {
		return Context{TenantID: id}
	}

	return Context{TenantID: r.FallbackID}
}

// Issue mints a credential for tenantID and identity at the given time.
func (r *Resolver) Issue(tenantID int64, identity string, at time.Time) string {
	raw := fmt.Sprintf("%d:%s:%d", tenantID, identity, at.Unix())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

type claims struct {
	tenantID int64
	identity string
	issuedAt time.Time
}

func (r *Resolver) decode(credential string) (claims, error) {
	raw, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return claims{}, fmt.Errorf("credential is not base64: %w", err)
	}

	// Identity may itself contain colons; tenant is first, timestamp last.
	s := string(raw)
	first := strings.Index(s, ":")
	last := strings.LastIndex(s, ":")
	if first <= 0 || last <= first {
		return claims{}, fmt.Errorf("credential has wrong shape")
	}

	tenantID, err := strconv.ParseInt(s[:first], 10, 64)
	if err != nil || tenantID <= 0 {
		return claims{}, fmt.Errorf("credential has invalid tenant id")
	}

	ts, err := strconv.ParseInt(s[last+1:], 10, 64)
	if err != nil {
		return claims{}, fmt.Errorf("credential has invalid timestamp")
	}

	issuedAt := time.Unix(ts, 0)
	age := r.Now().Sub(issuedAt)
	if age > r.Validity || age < -maxClockSkew {
		return claims{}, fmt.Errorf("credential expired")
	}

	return claims{
		tenantID: tenantID,
		identity: s[first+1 : last],
		issuedAt: issuedAt,
	}, nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying tc.
func NewContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant context stored in ctx, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}
