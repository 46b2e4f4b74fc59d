package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsEmptyListenAddress(t *testing.T) {
	c := Default()
	c.ListenAddress = ""
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNonPositiveTurnTimeout(t *testing.T) {
	c := Default()
	c.TurnTimeout = 0
	assert.Error(t, c.Validate())

	c.TurnTimeout = -time.Second
	assert.Error(t, c.Validate())
}
