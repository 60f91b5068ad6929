package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "HTTP_HOST", "HTTP_PORT", "BOT_TOKEN", "BOT_CHANNEL_ID", "BOT_NAME", "THEME",
		"MEETINGS_FILE", "AUDIT_LOG_FILE", "DIGEST_CRON", "DIGEST_THEME",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "NOTIFICATION_CHANNELS", "CHANNELS_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func anyTheme(key string) bool { return key == "corporate" || key == "minimal" }

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultBotName, cfg.Bot.Name)
	assert.Equal(t, DefaultTheme, cfg.Bot.DefaultTheme)
	assert.Equal(t, DefaultTheme, cfg.Digest.Theme)
	assert.Equal(t, DefaultDigestCron, cfg.Digest.Cron)
	assert.Equal(t, DefaultMeetingFile, cfg.Data.MeetingsFile)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8090", cfg.GetServerAddr())
	assert.Empty(t, cfg.Channels)
}

func TestServerAddrBindsLoopbackUnlessConfigured(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: "9000"}}
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())

	cfg.Server.Host = "0.0.0.0"
	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddr())

	cfg.Server.Host = "::1"
	assert.Equal(t, "[::1]:9000", cfg.GetServerAddr())

	clearEnv(t)
	t.Setenv("HTTP_HOST", "10.0.0.5")
	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8090", loaded.GetServerAddr())
}

func TestLoadConfigChannelsFromJSONAndYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIFICATION_CHANNELS", `{"Eng": "111", "ops": "222"}`)

	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels:\n  OPS: \"333\"\n  design: \"444\"\n"), 0o644))
	t.Setenv("CHANNELS_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ChannelDirectory{"eng": "111", "ops": "333", "design": "444"}, cfg.Channels)
	assert.Equal(t, []string{"design", "eng", "ops"}, cfg.Channels.Names())

	id, ok := cfg.Channels.Lookup("#ENG")
	assert.True(t, ok)
	assert.Equal(t, "111", id)
}

func TestLoadConfigInvalidChannelsJSON(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIFICATION_CHANNELS", `{not json`)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_CHANNELS")
}

func TestLoadConfigDisabledHTTP(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.Port)
}

func TestValidateConfig(t *testing.T) {
	valid := &Config{
		Server:   ServerConfig{Env: "dev", Port: "8090"},
		Bot:      BotConfig{Token: "token", CommandChannelID: "42", DefaultTheme: "corporate"},
		Channels: ChannelDirectory{"eng": "111"},
		Data:     DataConfig{MeetingsFile: "meetings.json"},
		Digest:   DigestConfig{Cron: DefaultDigestCron, Theme: "minimal"},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
	require.NoError(t, ValidateConfig(valid, anyTheme, true))

	broken := *valid
	broken.Bot = BotConfig{DefaultTheme: "neon"}
	broken.Server.Port = "99999"
	broken.Log.Level = "loud"

	err := ValidateConfig(&broken, anyTheme, true)
	require.Error(t, err)
	for _, want := range []string{"BOT_TOKEN", "BOT_CHANNEL_ID", "invalid THEME: neon", "HTTP_PORT", "LOG_LEVEL"} {
		assert.Contains(t, err.Error(), want)
	}

	// offline subcommands skip the bot credentials
	err = ValidateConfig(&broken, anyTheme, false)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "BOT_TOKEN")
}

func TestPrintConfigMasksToken(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Env: "dev"},
		Bot:      BotConfig{Name: "Meeting Bot", Token: "abcdefghijklmnop", DefaultTheme: "corporate"},
		Channels: ChannelDirectory{"eng": "111"},
	}
	out := cfg.PrintConfig()
	assert.NotContains(t, out, "abcd")
	assert.NotContains(t, out, "mnop")
	assert.Contains(t, out, "Token: *** (16 chars)")
	assert.Contains(t, out, "eng: 111")
	assert.True(t, strings.Contains(out, "Admin API Addr: <not set>"))

	cfg.Server.Port = "8090"
	assert.Contains(t, cfg.PrintConfig(), "Admin API Addr: 127.0.0.1:8090")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<not set>", maskSecret(""))
	assert.Equal(t, "*** (3 chars)", maskSecret("abc"))
	assert.Equal(t, "*** (20 chars)", maskSecret("MTIzNDU2Nzg5.abc.xyz"))
}
