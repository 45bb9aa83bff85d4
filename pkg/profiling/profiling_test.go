package profiling

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"virtual-economy/pkg/config"
)

func TestNewConfig(t *testing.T) {
	cfg := &config.Config{AppName: "economy", AppEnv: "staging"}
	cfg.Pyroscope.Addr = "http://pyroscope:4040"

	pc := NewConfig(cfg)
	require.Equal(t, "economy", pc.ApplicationName)
	require.Equal(t, "http://pyroscope:4040", pc.ServerAddress)
	require.Equal(t, "staging", pc.Tags["env"])
	require.NotEmpty(t, pc.ProfileTypes)
}

func TestStartDisabledWithoutAddr(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	require.NoError(t, Start(lc, &config.Config{}))
	lc.RequireStart().RequireStop()
}
