package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		window  time.Duration
		wantErr bool
	}{
		{name: "valid", max: 10, window: 15 * time.Minute},
		{name: "zero max", max: 0, window: time.Minute, wantErr: true},
		{name: "zero window", max: 10, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.max, tt.window)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, l)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, l)
			}
		})
	}
}

func TestLimiter_Allow(t *testing.T) {
	l, err := New(3, time.Minute)
	require.NoError(t, err)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	// one token every 20s
	now = now.Add(20 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	l.Reset()
	assert.Equal(t, 0, l.size())
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestLimiter_Sweep(t *testing.T) {
	l, err := New(3, time.Minute)
	require.NoError(t, err)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(40 * time.Minute)
	l.Allow("recent")

	assert.Equal(t, 1, l.Sweep(30*time.Minute))
	assert.Equal(t, 1, l.size())
	assert.Equal(t, 0, l.Sweep(30*time.Minute))
}

func TestNewJanitor(t *testing.T) {
	l, err := New(3, time.Minute)
	require.NoError(t, err)

	_, err = NewJanitor(l, "not a spec", time.Minute, nil)
	assert.Error(t, err)

	j, err := NewJanitor(l, "@every 10m", time.Minute, nil)
	require.NoError(t, err)
	j.Start()
	j.Stop()
}
