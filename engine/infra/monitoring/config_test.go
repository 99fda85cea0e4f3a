package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Run("Should return config with default values", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "/metrics", cfg.Path)
	})
}

func TestFromAppConfig(t *testing.T) {
	t.Run("Should copy the monitoring section", func(t *testing.T) {
		app := appconfig.Default()
		app.Monitoring.Path = "/custom"
		cfg := FromAppConfig(app)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "/custom", cfg.Path)
	})
	t.Run("Should fall back to defaults", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), FromAppConfig(nil))
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		path string
		msg  string
	}{
		{name: "Should reject empty path", path: "", msg: "cannot be empty"},
		{name: "Should reject relative path", path: "metrics", msg: "must start with '/'"},
		{name: "Should reject api path", path: "/api/metrics", msg: "cannot be under /api/"},
		{name: "Should reject query parameters", path: "/metrics?x=1", msg: "query parameters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := (&Config{Enabled: true, Path: tc.path}).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
	t.Run("Should accept the default path", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})
}
