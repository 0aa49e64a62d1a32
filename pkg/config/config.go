// Package config holds the settings of the uartcomm daemon.
//
// Values come from built-in defaults, then UARTCOMM_* environment
// variables, then an optional YAML file, then explicitly set flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/uartcomm/pkg/uart"
	"github.com/robotalks/uartcomm/pkg/uartcomm"
)

// Config is the daemon configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	CAN     CANConfig     `yaml:"can"`
	MAVLink MAVLinkConfig `yaml:"mavlink"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Device  DeviceConfig  `yaml:"device"`
	Shell   bool          `yaml:"shell"`
	// DryRun replaces the CAN interface with an in-memory bus.
	DryRun bool `yaml:"dry_run"`
}

// SerialConfig selects the serial link.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// CANConfig selects the CAN interface.
type CANConfig struct {
	Interface string `yaml:"interface"`
}

// MAVLinkConfig sets the source of outgoing frames.
type MAVLinkConfig struct {
	SystemID    uint8 `yaml:"system_id"`
	ComponentID uint8 `yaml:"component_id"`
}

// MQTTConfig enables the MQTT mirror when URL is set,
// e.g. mqtt://host:port/topic-prefix/
type MQTTConfig struct {
	URL string `yaml:"url"`
}

// DeviceConfig identifies the device on the broker.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// appID scopes the protected machine id.
const appID = "uartcomm"

var (
	defaultConfig = Config{
		Serial:  SerialConfig{Port: "/dev/ttyUSB0", BaudRate: uart.DefaultBaudRate},
		CAN:     CANConfig{Interface: "can0"},
		MAVLink: MAVLinkConfig{SystemID: uartcomm.DefaultSystemID, ComponentID: uartcomm.DefaultComponentID},
	}

	configFile string
	flags      = &defaultConfig
	flagSet    *flag.FlagSet
)

func init() {
	applyEnv(&defaultConfig, os.Getenv)
	if id, err := machineid.ProtectedID(appID); err == nil {
		defaultConfig.Device.ID = id
	}
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv("UARTCOMM_SERIAL"); val != "" {
		c.Serial.Port = val
	}
	if val := getenv("UARTCOMM_BAUD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Serial.BaudRate = n
		}
	}
	if val := getenv("UARTCOMM_CAN"); val != "" {
		c.CAN.Interface = val
	}
	if val := getenv("UARTCOMM_MQTT_URL"); val != "" {
		c.MQTT.URL = val
	}
	if val := getenv("UARTCOMM_ID"); val != "" {
		c.Device.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine)
}

// SetupFlagSet registers the flags on fs.
func SetupFlagSet(fs *flag.FlagSet) {
	conf := defaultConfig
	flags, flagSet = &conf, fs
	fs.StringVar(&configFile, "config", "", "YAML config file")
	fs.StringVar(&flags.Serial.Port, "serial", flags.Serial.Port, "Serial device")
	fs.IntVar(&flags.Serial.BaudRate, "baud", flags.Serial.BaudRate, "Serial baud rate")
	fs.StringVar(&flags.CAN.Interface, "can", flags.CAN.Interface, "CAN interface")
	fs.StringVar(&flags.MQTT.URL, "mqtt", flags.MQTT.URL, "MQTT broker URL, empty to disable")
	fs.StringVar(&flags.Device.ID, "id", flags.Device.ID, "Device ID")
	fs.BoolVar(&flags.Shell, "shell", flags.Shell, "Run interactive shell")
	fs.BoolVar(&flags.DryRun, "dry-run", flags.DryRun, "Use an in-memory CAN bus")
}

// Default gets default config.
func Default() *Config {
	conf := defaultConfig
	return &conf
}

// NewConfig creates the effective Config: defaults, the file given by
// -config, then explicitly set flags.
func NewConfig() (*Config, error) {
	conf := Default()
	if configFile != "" {
		loaded, err := Load(configFile)
		if err != nil {
			return nil, err
		}
		conf = loaded
	}
	if flagSet != nil {
		flagSet.Visit(func(f *flag.Flag) { applyFlag(conf, f.Name) })
	}
	Normalize(conf)
	if err := Validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func applyFlag(c *Config, name string) {
	switch name {
	case "serial":
		c.Serial.Port = flags.Serial.Port
	case "baud":
		c.Serial.BaudRate = flags.Serial.BaudRate
	case "can":
		c.CAN.Interface = flags.CAN.Interface
	case "mqtt":
		c.MQTT.URL = flags.MQTT.URL
	case "id":
		c.Device.ID = flags.Device.ID
	case "shell":
		c.Shell = flags.Shell
	case "dry-run":
		c.DryRun = flags.DryRun
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	conf := Default()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return conf, nil
}
