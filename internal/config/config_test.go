package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:               "8080",
		JWTSecret:          "secure-secret-at-least-32-chars-long",
		DBPassword:         "secure-password",
		DBSSLMode:          "require",
		OperatorPassword:   "strong-operator-password",
		PersistenceBackend: BackendRelational,
		Env:                "test",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid production config", func(c *Config) { c.Env = "production" }, false},
		{"Default JWT secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"Short JWT secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"Default operator password", func(c *Config) {
			c.Env = "production"
			c.OperatorPassword = "change-me-in-production"
		}, true},
		{"Disabled SSL", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "disable"
		}, true},
		{"Dev tolerates defaults", func(c *Config) {
			c.Env = "development"
			c.DBSSLMode = "disable"
			c.OperatorPassword = "change-me-in-production"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidatePersistenceBackend(t *testing.T) {
	c := validConfig()
	c.PersistenceBackend = "document"
	assert.NoError(t, c.Validate())

	c.PersistenceBackend = "firebase"
	assert.Error(t, c.Validate())

	c.PersistenceBackend = ""
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateRequiredFields(t *testing.T) {
	c := validConfig()
	c.Port = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())
}
