package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPIDString(t *testing.T) {
	pid := PID{Name: "master", Host: "master.internal", Port: 8080}
	assert.Equal(t, "master@master.internal:8080", pid.String())
}

func TestPIDZero(t *testing.T) {
	assert.True(t, PID{}.Zero())
	assert.False(t, PID{Name: "master"}.Zero())
}
