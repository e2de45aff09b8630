package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	width int
	name  string
	calls []string
}

func withWidth(w int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if w <= 0 {
			return errors.New("width must be positive")
		}
		c.width = w
		c.calls = append(c.calls, "width")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.calls = append(c.calls, "name")
	})
}

func TestApply_InOrder(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withName("offsets"), withWidth(4))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.width)
	require.Equal(t, "offsets", cfg.name)
	require.Equal(t, []string{"name", "width"}, cfg.calls)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withWidth(0), withName("never"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "width must be positive")
	require.Empty(t, cfg.name)
}

func TestApply_SkipsNil(t *testing.T) {
	cfg := &testConfig{}

	require.NoError(t, Apply[*testConfig](cfg, nil, withWidth(8)))
	require.Equal(t, 8, cfg.width)
}

func TestApply_NoOptions(t *testing.T) {
	cfg := &testConfig{width: 2}

	require.NoError(t, Apply(cfg))
	require.Equal(t, 2, cfg.width)
}
