package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pos-suite/pos-backend/internal/config"
)

func TestNewUsesConfiguredAppURL(t *testing.T) {
	m := New(&config.Config{AppURL: "https://pos.example.com/", Port: "8080"})

	// Mailed links must point at the deployed base URL, not the bind port.
	assert.Equal(t, "https://pos.example.com", m.appURL)
}
