package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	conf, err := Parse([]byte(`
serial:
  port: /dev/ttyAMA0
  baud_rate: 230400
can:
  interface: vcan0
mqtt:
  url: mqtt://broker:1883/robo/
device:
  id: esc-a
shell: true
`))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", conf.Serial.Port)
	assert.Equal(t, 230400, conf.Serial.BaudRate)
	assert.Equal(t, "vcan0", conf.CAN.Interface)
	assert.Equal(t, "mqtt://broker:1883/robo/", conf.MQTT.URL)
	assert.Equal(t, "esc-a", conf.Device.ID)
	assert.True(t, conf.Shell)
	// Omitted keys keep defaults.
	assert.EqualValues(t, 100, conf.MAVLink.ComponentID)
	require.NoError(t, Validate(conf))

	_, err = Parse([]byte("serial: [1"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	conf := &Config{MQTT: MQTTConfig{URL: "mqtt://broker"}}
	err := Validate(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial.port")
	assert.Contains(t, err.Error(), "serial.baud_rate")
	assert.Contains(t, err.Error(), "can.interface")
	assert.Contains(t, err.Error(), "device.id")

	conf = &Config{Serial: SerialConfig{Port: "/dev/ttyS0", BaudRate: 9600}, DryRun: true}
	require.NoError(t, Validate(conf))
}

func TestNormalize(t *testing.T) {
	conf := &Config{Serial: SerialConfig{Port: "/dev/ttyS0"}}
	Normalize(conf)
	assert.Equal(t, 115200, conf.Serial.BaudRate)
	assert.Equal(t, "can0", conf.CAN.Interface)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"UARTCOMM_SERIAL":   "/dev/ttyACM1",
		"UARTCOMM_BAUD":     "57600",
		"UARTCOMM_CAN":      "can1",
		"UARTCOMM_MQTT_URL": "mqtt://localhost/",
		"UARTCOMM_ID":       "dev1",
	}
	var conf Config
	applyEnv(&conf, func(key string) string { return env[key] })
	assert.Equal(t, Config{
		Serial: SerialConfig{Port: "/dev/ttyACM1", BaudRate: 57600},
		CAN:    CANConfig{Interface: "can1"},
		MQTT:   MQTTConfig{URL: "mqtt://localhost/"},
		Device: DeviceConfig{ID: "dev1"},
	}, conf)
}

func TestNewConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uartcomm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial:\n  port: /dev/file\n  baud_rate: 9600\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFlagSet(fs)
	t.Cleanup(func() { configFile, flagSet = "", nil })
	require.NoError(t, fs.Parse([]string{"-config", path, "-baud", "460800", "-dry-run"}))

	conf, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/file", conf.Serial.Port)
	assert.Equal(t, 460800, conf.Serial.BaudRate)
	assert.True(t, conf.DryRun)
}
