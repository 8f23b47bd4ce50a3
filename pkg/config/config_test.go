package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StoreDriverPostgres, cfg.App.StoreDriver)
	assert.Equal(t, 15*time.Second, cfg.DB.StatementTimeout)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 2, cfg.DB.MinConns)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, cfg.DB.MaxConnIdleTime)
	assert.False(t, cfg.DB.ForceIPv4)
	assert.Equal(t, "0.16", cfg.Purchase.TaxRate.String())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Ledger.AllowNegativeStock)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("DB_LOCK_TIMEOUT", "750ms")
	v.Set("DB_STATEMENT_TIMEOUT", "30")
	v.Set("PURCHASE_TAX_RATE", "0.19")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("HTTP_PORT", "9090")
	v.Set("LEDGER_ALLOW_NEGATIVE", true)
	v.Set("DB_MIN_CONNS", "5")
	v.Set("DB_MAX_CONN_LIFETIME", "10m")
	v.Set("DB_MAX_CONN_IDLE_TIME", "90")
	v.Set("DB_FORCE_IPV4", true)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.App.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.Equal(t, "0.19", cfg.Purchase.TaxRate.String())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Ledger.AllowNegativeStock)
	assert.Equal(t, 5, cfg.DB.MinConns)
	assert.Equal(t, 10*time.Minute, cfg.DB.MaxConnLifetime)
	assert.Equal(t, 90*time.Second, cfg.DB.MaxConnIdleTime)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestFromViper_RechazaValoresInvalidos(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "mongo")
	_, err := fromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("PURCHASE_TAX_RATE", "-0.1")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "megaventa", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/megaventa?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", c.ConnectionString())
}
