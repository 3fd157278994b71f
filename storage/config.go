package storage

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
)

// Environment variables read by NewConfigFromEnv.
const (
	HostEnvKey        = "STORAGE_API_HOST"
	AccessTokenEnvKey = "STORAGE_API_ACCESS_TOKEN"
)

// Secret holds a sensitive value that must not appear in printed output.
type Secret string

const redacted = "*****"

// String implements fmt.Stringer.String.
func (s Secret) String() string {
	return redacted
}

// Config holds the service endpoint and credentials shared by all clients.
type Config struct {
	// Host is the service endpoint, DefaultHost if empty.
	Host string
	// AccessToken is attached as a bearer token to every request.
	// Optional: anonymous access is allowed for public buckets.
	AccessToken Secret
}

// Validate normalizes the config and reports unusable values.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	c.Host = strings.TrimSuffix(c.Host, "/")
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return fmt.Errorf("host must be an absolute http(s) URL: %s", c.Host)
	}
	return nil
}

// NewConfigFromEnv assembles a Config from the environment.
func NewConfigFromEnv(envRepo env.Repository) (Config, error) {
	config := Config{
		Host:        envRepo.Get(HostEnvKey),
		AccessToken: Secret(envRepo.Get(AccessTokenEnvKey)),
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
