// Package secrets resolves the credentials the pipeline needs to reach its
// three external systems. Each credential is scoped to exactly one system:
// the source-control push token, the release-host API token, and the package
// registry password never share a secret.
package secrets

import (
	"context"
	"errors"
	"fmt"
)

// Ref identifies one scoped credential.
type Ref string

const (
	// RefGitPush is the token used to push commits and tags upstream.
	RefGitPush Ref = "git-push"

	// RefReleaseHost is the API token for the release host.
	RefReleaseHost Ref = "release-host"

	// RefRegistry is the password for the package registry upload account.
	RefRegistry Ref = "registry"
)

// ErrNotFound is returned when a credential cannot be resolved.
var ErrNotFound = errors.New("secret not found")

// Secret holds one resolved credential value. The value never appears in
// String output so secrets cannot leak through logs or error messages.
type Secret struct {
	value string
}

// NewSecret wraps a raw credential value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value returns the raw credential.
func (s Secret) Value() string {
	return s.value
}

// String returns a redacted placeholder.
func (s Secret) String() string {
	return "[REDACTED]"
}

// Resolver fetches scoped credentials from a backing source.
type Resolver interface {
	// Resolve retrieves the credential for ref.
	// Returns ErrNotFound if the credential is not configured.
	Resolve(ctx context.Context, ref Ref) (Secret, error)
}

// EnvResolver resolves credentials from the process environment.
type EnvResolver struct {
	lookup func(string) (string, bool)
}

// envVars maps credential refs to their environment variable names.
var envVars = map[Ref]string{
	RefGitPush:     "RELEASEKIT_GIT_TOKEN",
	RefReleaseHost: "RELEASEKIT_HOST_TOKEN",
	RefRegistry:    "RELEASEKIT_REGISTRY_PASSWORD",
}

// NewEnvResolver returns a Resolver backed by lookup, typically os.LookupEnv.
func NewEnvResolver(lookup func(string) (string, bool)) *EnvResolver {
	return &EnvResolver{lookup: lookup}
}

// Resolve implements Resolver.
func (r *EnvResolver) Resolve(_ context.Context, ref Ref) (Secret, error) {
	name, ok := envVars[ref]
	if !ok {
		return Secret{}, fmt.Errorf("%w: unknown ref %q", ErrNotFound, ref)
	}

	value, ok := r.lookup(name)
	if !ok || value == "" {
		return Secret{}, fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, name)
	}
	return NewSecret(value), nil
}

// MemoryResolver is an in-memory Resolver for tests.
type MemoryResolver struct {
	values map[Ref]string
}

// NewMemoryResolver returns a Resolver backed by a fixed map.
func NewMemoryResolver(values map[Ref]string) *MemoryResolver {
	return &MemoryResolver{values: values}
}

// Resolve implements Resolver.
func (r *MemoryResolver) Resolve(_ context.Context, ref Ref) (Secret, error) {
	value, ok := r.values[ref]
	if !ok {
		return Secret{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return NewSecret(value), nil
}
