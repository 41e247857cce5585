package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config структура конфигурации.
type Config struct {
	Logger LogConf    `toml:"logger"` // Logger - конфигурация регистратора.
	Serial SerialConf `toml:"serial"` // Serial - последовательный порт Firmata.
	MQTT   MQTTConf   `toml:"mqtt"`   // MQTT - конфигурация MQTT клиента.
	ArtNet ArtNetConf `toml:"artnet"` // ArtNet - зеркалирование выводов в DMX.
	Pins   []PinConf  `toml:"pins"`   // Pins - описание выводов платы.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"` // Level - уровень логирования.
	Format string `toml:"format"`    // Format - text или json.
}

// SerialConf структура конфигурации.
type SerialConf struct {
	Device      string `toml:"device"`       // Device - путь к устройству.
	Baud        int    `toml:"baud"`         // Baud - скорость порта.
	ReadTimeout int    `toml:"read-timeout"` // ReadTimeout - таймаут чтения, мс.
	MaxSysex    int    `toml:"max-sysex"`    // MaxSysex - предел размера sysex кадра.
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	ClientID    string `toml:"clientID"`     // ClientID - имя клиента.
	Host        string `toml:"server"`       // Host - адрес MQTT сервера.
	Port        string `toml:"port"`         // Port - порт MQTT сервера.
	User        string `toml:"user"`         // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password"`     // Password - пароль для подключения к MQTT серверу.
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - корень топиков.
}

// ArtNetConf структура конфигурации.
type ArtNetConf struct {
	Enabled      bool   `toml:"enabled"`       // Enabled - включить зеркалирование.
	AddressRange string `toml:"address-range"` // AddressRange - сеть art-net (CIDR).
	Universe     uint16 `toml:"universe"`      // Universe: старший байт - SubUni, младший байт - Net.
	MaxFPS       int    `toml:"max-fps"`       // MaxFPS - частота отправки.
}

// PinConf описание одного вывода. Нулевое разрешение - режим не поддерживается.
type PinConf struct {
	Digital       bool   `toml:"digital"`
	Analog        uint8  `toml:"analog"`
	AnalogChannel *uint8 `toml:"analog-channel"`
	PWM           uint8  `toml:"pwm"`
	Servo         uint8  `toml:"servo"`
	I2C           bool   `toml:"i2c"`
}

// maxWireValue - наибольшее значение, передаваемое одним байтом данных Firmata.
const maxWireValue = 0x7F

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info", Format: "text"},
		Serial: SerialConf{
			Device:      "/dev/ttyAMA0",
			Baud:        57600,
			ReadTimeout: 100,
			MaxSysex:    1024,
		},
		MQTT: MQTTConf{
			Host:        "localhost",
			Port:        "1883",
			TopicPrefix: "firmata",
		},
		ArtNet: ArtNetConf{
			AddressRange: "192.168.6.0/24",
			MaxFPS:       1,
		},
	}
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return &cfg, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate проверяет значения, которые нельзя передать по протоколу.
func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return errors.New("serial: device is empty")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial: invalid baud %d", c.Serial.Baud)
	}
	if c.MQTT.Qos > 2 {
		return fmt.Errorf("mqtt: invalid qos %d", c.MQTT.Qos)
	}
	switch c.Logger.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logger: unknown format %q", c.Logger.Format)
	}

	channels := map[uint8]int{}
	for i, p := range c.Pins {
		for name, v := range map[string]uint8{"analog": p.Analog, "pwm": p.PWM, "servo": p.Servo} {
			if v > maxWireValue {
				return fmt.Errorf("pins[%d]: %s resolution %d exceeds %d", i, name, v, maxWireValue)
			}
		}
		if p.AnalogChannel == nil {
			continue
		}
		ch := *p.AnalogChannel
		// 127 is reserved for "not mapped" in the analog mapping report.
		if ch >= maxWireValue {
			return fmt.Errorf("pins[%d]: analog-channel %d exceeds %d", i, ch, maxWireValue-1)
		}
		if prev, ok := channels[ch]; ok {
			return fmt.Errorf("pins[%d]: analog-channel %d already used by pins[%d]", i, ch, prev)
		}
		channels[ch] = i
	}
	return nil
}
