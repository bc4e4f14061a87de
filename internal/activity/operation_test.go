package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Participates(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		readOnly bool
		want     bool
	}{
		{"query defaults to silent", Config{}, true, false},
		{"mutation defaults to counted", Config{}, false, true},
		{"query forced on", Participate(true), true, true},
		{"mutation forced off", Participate(false), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Participates(tt.readOnly))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	require.NotNil(t, DefaultConfig(true).Participate)
	assert.False(t, *DefaultConfig(true).Participate)
	assert.True(t, *DefaultConfig(false).Participate)
}

func TestConfigFromContext(t *testing.T) {
	assert.Nil(t, ConfigFromContext(context.Background()).Participate)
	var none context.Context
	assert.Nil(t, ConfigFromContext(none).Participate)

	cfg := ConfigFromContext(WithParticipation(context.Background(), false))
	require.NotNil(t, cfg.Participate)
	assert.False(t, *cfg.Participate)
}

func TestOperation_DoneDecrementsOnce(t *testing.T) {
	c := New()

	op := c.Start(Config{}, false)
	require.True(t, op.Participates())
	assert.Equal(t, 1, c.Active())

	other := c.Start(Config{}, false)
	assert.Equal(t, 2, c.Active())

	op.Done()
	op.Done()
	assert.Equal(t, 1, c.Active(), "second Done must not end another operation")

	other.Done()
	assert.Equal(t, 0, c.Active())
}

func TestOperation_NonParticipatingLeavesCountAlone(t *testing.T) {
	c := New()
	busy := c.Start(Config{}, false)

	query := c.Start(Config{}, true)
	assert.False(t, query.Participates())
	assert.Equal(t, 1, c.Active())

	query.Done()
	assert.Equal(t, 1, c.Active())
	busy.Done()
}

func TestOperation_NilSafety(t *testing.T) {
	var c *Coordinator
	op := c.Start(Participate(true), false)
	assert.False(t, op.Participates())
	op.Done()

	var nilOp *Operation
	assert.False(t, nilOp.Participates())
	nilOp.Done()
}

func TestTrack(t *testing.T) {
	c := New()
	boom := errors.New("boom")

	err := Track(context.Background(), c, Config{}, false, func(context.Context) error {
		assert.Equal(t, 1, c.Active())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Active(), "failed operations end too")

	ctx := WithParticipation(context.Background(), false)
	err = Track(ctx, c, Participate(true), false, func(context.Context) error {
		assert.Equal(t, 0, c.Active(), "context override wins")
		return nil
	})
	assert.NoError(t, err)
}
