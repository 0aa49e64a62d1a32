package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robotalks/uartcomm/pkg/framework"
	"github.com/robotalks/uartcomm/pkg/uart"
)

// Normalize fills defaults left empty by a config file.
func Normalize(c *Config) {
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = uart.DefaultBaudRate
	}
	if c.CAN.Interface == "" && !c.DryRun {
		c.CAN.Interface = defaultConfig.CAN.Interface
	}
	if c.Device.ID == "" {
		c.Device.ID = defaultConfig.Device.ID
	}
}

// Validate reports all problems found in c.
func Validate(c *Config) error {
	var errs framework.AggregatedError
	if c.Serial.Port == "" {
		errs.Add(errors.New("serial.port is required"))
	}
	if c.Serial.BaudRate <= 0 {
		errs.Add(fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
	}
	if c.CAN.Interface == "" && !c.DryRun {
		errs.Add(errors.New("can.interface is required"))
	}
	if c.MQTT.URL != "" {
		if c.Device.ID == "" {
			errs.Add(errors.New("device.id is required with mqtt.url"))
		}
		if _, err := url.Parse(c.MQTT.URL); err != nil {
			errs.Add(fmt.Errorf("mqtt.url: %w", err))
		}
	}
	return errs.Aggregate()
}
