package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
[serial]
device = "/dev/ttyACM0"
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Device)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, 1024, cfg.Serial.MaxSysex)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "firmata", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.ArtNet.Enabled)
	assert.Empty(t, cfg.Pins)
}

func TestNewConfigPins(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, `
[logger]
log-level = "debug"

[mqtt]
clientID = "board-1"
server = "broker"
qos = 1

[[pins]]
digital = true
pwm = 8

[[pins]]
analog = 10
analog-channel = 0
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "board-1", cfg.MQTT.ClientID)
	assert.Equal(t, "broker", cfg.MQTT.Host)
	assert.Equal(t, byte(1), cfg.MQTT.Qos)

	require.Len(t, cfg.Pins, 2)
	assert.True(t, cfg.Pins[0].Digital)
	assert.Equal(t, uint8(8), cfg.Pins[0].PWM)
	assert.Nil(t, cfg.Pins[0].AnalogChannel)
	assert.Equal(t, uint8(10), cfg.Pins[1].Analog)
	require.NotNil(t, cfg.Pins[1].AnalogChannel)
	assert.Equal(t, uint8(0), *cfg.Pins[1].AnalogChannel)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ch := func(n uint8) *uint8 { return &n }

	testCases := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"empty device", func(c *Config) { c.Serial.Device = "" }, "device is empty"},
		{"bad baud", func(c *Config) { c.Serial.Baud = 0 }, "invalid baud"},
		{"bad qos", func(c *Config) { c.MQTT.Qos = 3 }, "invalid qos"},
		{"bad format", func(c *Config) { c.Logger.Format = "xml" }, "unknown format"},
		{"wide resolution", func(c *Config) { c.Pins = []PinConf{{PWM: 200}} }, "pwm resolution 200"},
		{"reserved channel", func(c *Config) { c.Pins = []PinConf{{Analog: 10, AnalogChannel: ch(127)}} }, "analog-channel 127"},
		{"duplicate channel", func(c *Config) {
			c.Pins = []PinConf{{Analog: 10, AnalogChannel: ch(2)}, {Analog: 10, AnalogChannel: ch(2)}}
		}, "already used by pins[0]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
