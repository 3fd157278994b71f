package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEnvRepo struct {
	values map[string]string
}

func (r fakeEnvRepo) Get(key string) string {
	return r.values[key]
}

func (r fakeEnvRepo) Set(key, value string) error {
	r.values[key] = value
	return nil
}

func (r fakeEnvRepo) Unset(key string) error {
	delete(r.values, key)
	return nil
}

func (r fakeEnvRepo) List() []string {
	var envs []string
	for key, value := range r.values {
		envs = append(envs, fmt.Sprintf("%s=%s", key, value))
	}
	return envs
}

func TestNewConfigFromEnv(t *testing.T) {
	envRepo := fakeEnvRepo{values: map[string]string{
		HostEnvKey:        "https://storage.example.com/",
		AccessTokenEnvKey: "super-secret-token",
	}}

	config, err := NewConfigFromEnv(envRepo)

	assert.NoError(t, err)
	assert.Equal(t, "https://storage.example.com", config.Host)
	assert.Equal(t, Secret("super-secret-token"), config.AccessToken)
}

func TestNewConfigFromEnv_defaultsHost(t *testing.T) {
	config, err := NewConfigFromEnv(fakeEnvRepo{values: map[string]string{}})

	assert.NoError(t, err)
	assert.Equal(t, DefaultHost, config.Host)
}

func TestConfig_Validate_rejectsRelativeHost(t *testing.T) {
	config := Config{Host: "storage.example.com"}
	assert.Error(t, config.Validate())
}

func TestSecret_redactedInOutput(t *testing.T) {
	token := Secret("super-secret-token")

	assert.Equal(t, "*****", token.String())
	assert.Equal(t, "token: *****", fmt.Sprintf("token: %s", token))
	assert.NotContains(t, fmt.Sprintf("%v", token), "super-secret")
}
