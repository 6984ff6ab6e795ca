package llm

import (
	"os"
	"strings"

	"compass/internal/model"
)

// CredentialSource resolves secrets by name, normally from the environment.
type CredentialSource interface {
	Credential(name string) (string, bool)
}

// EnvCredentials reads the process environment on every call, so a key that
// is removed at runtime is noticed on the next request.
type EnvCredentials struct{}

func (EnvCredentials) Credential(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// StaticCredentials is a fixed map, handy for tests and the CLI.
type StaticCredentials map[string]string

func (s StaticCredentials) Credential(name string) (string, bool) {
	v := strings.TrimSpace(s[name])
	return v, v != ""
}

// ResolveCredential returns the API key for provider or a ConfigurationError.
func ResolveCredential(src CredentialSource, p model.Provider, d model.Descriptor) (string, error) {
	if src == nil {
		src = EnvCredentials{}
	}
	key, ok := src.Credential(p.CredentialEnv)
	if !ok {
		return "", &ConfigurationError{
			Provider: p.ID,
			Model:    d.ModelID,
			Setting:  p.CredentialEnv,
			Err:      ErrMissingCredential,
		}
	}
	return key, nil
}
