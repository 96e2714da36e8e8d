package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampSessionTimeout(t *testing.T) {
	assert.Equal(t, DefaultSessionTimeout, ClampSessionTimeout(0))
	assert.Equal(t, DefaultSessionTimeout, ClampSessionTimeout(-time.Second))
	assert.Equal(t, MinSessionTimeout, ClampSessionTimeout(time.Second))
	assert.Equal(t, MaxSessionTimeout, ClampSessionTimeout(48*time.Hour))
	assert.Equal(t, time.Hour, ClampSessionTimeout(time.Hour))
}
