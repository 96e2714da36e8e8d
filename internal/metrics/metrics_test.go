package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestCounters(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.Logins.WithLabelValues("success"))
	m.Logins.WithLabelValues(Result(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(m.Logins.WithLabelValues("success")))

	m.SessionsActive.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SessionsActive))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "success", Result(nil))
	assert.Equal(t, "failure", Result(errors.New("x")))
}
