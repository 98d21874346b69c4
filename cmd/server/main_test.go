package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Setenv("PORT", "0")
	t.Setenv("DATABASE_URL", "sqlite://file::memory:?cache=shared")
	t.Setenv("REDIS_URL", "")
	t.Setenv("GEO_PROVIDER", "none")
	t.Setenv("APP_ENV", "local")
	t.Setenv("ADMIN_API_KEY", "test-key")
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Async Recording", map[string]string{"CLICK_RECORDING": "async"}},
		{"Sync Recording", map[string]string{"CLICK_RECORDING": "sync"}},
		{"Four Click Workers", map[string]string{"CLICK_RECORDING": "async", "CLICK_WORKERS": "4"}},
		{"Management API Disabled", map[string]string{"ADMIN_API_KEY": ""}},
		{"MaxMind Without Database", map[string]string{"GEO_PROVIDER": "maxmind", "GEOIP_DB_PATH": filepath.Join(t.TempDir(), "city.mmdb")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			ctx, cancel := context.WithCancel(context.Background())

			errChan := make(chan error, 1)
			go func() {
				errChan <- Run(ctx)
			}()

			time.Sleep(500 * time.Millisecond)
			cancel()

			select {
			case err := <-errChan:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not exit in time")
			}
		})
	}
}

func TestRun_DBError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DATABASE_URL", "unsupported://db")

	err := Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

func TestRun_PostgresUnreachable(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:1/clicktrail?sslmode=disable&connect_timeout=1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Error(t, Run(ctx))
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"Ingress Profile", "INGRESS_PROFILE", "heroku", "invalid ingress configuration"},
		{"Geo Provider", "GEO_PROVIDER", "carrier-pigeon", "unknown GEO_PROVIDER"},
		{"Click Recording", "CLICK_RECORDING", "batch", "unknown CLICK_RECORDING"},
		{"Rollup Schedule", "ROLLUP_REBUILD_CRON", "every night", "invalid rollup schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)
			t.Setenv(tt.key, tt.val)

			err := Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_ServerError(t *testing.T) {
	setTestEnv(t)

	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	t.Setenv("PORT", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
}
