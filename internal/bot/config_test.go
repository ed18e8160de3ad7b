package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Orders.Storage)
	assert.Equal(t, "orders_data.json", cfg.Orders.DataFile)
	assert.Equal(t, int64(-1001), cfg.Orders.OperatorChatID)
	require.NotNil(t, cfg.Orders.HourlyLimit)
	assert.Equal(t, 10, *cfg.Orders.HourlyLimit)
	assert.Equal(t, "Europe/Kyiv", cfg.Orders.Timezone)
	assert.NotEmpty(t, cfg.Orders.Tariffs)
	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
}

func TestLoadConfigPostgresStorage(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
database:
  host: localhost
  port: "5432"
orders:
  storage: postgres
  operator_chat_id: -1001
  hourly_limit: 5
`))
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Orders.Storage)
	require.NotNil(t, cfg.Orders.HourlyLimit)
	assert.Equal(t, 5, *cfg.Orders.HourlyLimit)
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadConfigExplicitZeroDisablesLimit(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
  hourly_limit: 0
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Orders.HourlyLimit)
	assert.Equal(t, 0, *cfg.Orders.HourlyLimit)
}

func TestLoadConfigRejectsUnknownStorage(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  storage: redis
  operator_chat_id: -1001
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.storage")
}

func TestLoadConfigRequiresOperatorChat(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator_chat_id")
}

func TestLoadConfigRejectsNegativeLimit(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
  hourly_limit: -1
`))
	require.Error(t, err)
}

func TestLoadConfigRejectsBadTimezone(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
  timezone: Mars/Olympus
`))
	require.Error(t, err)
}

func TestLoadConfigCustomTariffs(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
  tariffs:
    - key: weekly
      text: "7 days — 50₴"
`))
	require.NoError(t, err)
	require.Len(t, cfg.Orders.Tariffs, 1)
	assert.Equal(t, "weekly", cfg.Orders.Tariffs[0].Key)
}

func TestLoadConfigRejectsEmptyTariff(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
orders:
  operator_chat_id: -1001
  tariffs:
    - key: weekly
`))
	require.Error(t, err)
}
