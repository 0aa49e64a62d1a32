package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/uartcomm/pkg/canbus"
	"github.com/robotalks/uartcomm/pkg/cli/sh"
	"github.com/robotalks/uartcomm/pkg/config"
	"github.com/robotalks/uartcomm/pkg/esc"
	"github.com/robotalks/uartcomm/pkg/framework"
	"github.com/robotalks/uartcomm/pkg/mqtt"
	"github.com/robotalks/uartcomm/pkg/uart"
	"github.com/robotalks/uartcomm/pkg/uartcomm"
)

func init() {
	config.SetupFlags()
}

func openBus(conf *config.Config) (canbus.Bus, error) {
	if !conf.DryRun {
		return canbus.OpenSocketCAN(conf.CAN.Interface)
	}
	bus, peer := canbus.NewLoopback()
	go func() {
		for {
			f, err := peer.Receive()
			if err != nil {
				return
			}
			glog.V(1).Infof("can: %v", f)
		}
	}()
	return bus, nil
}

// run returns instead of exiting so deferred closes release the serial
// port and the CAN socket.
func run() error {
	conf, err := config.NewConfig()
	if err != nil {
		return err
	}

	bus, err := openBus(conf)
	if err != nil {
		return err
	}
	defer bus.Close()
	table := esc.NewStatusTable()
	motors := esc.NewClient(bus)

	bridgeConf := uartcomm.DefaultConfig()
	bridgeConf.BaudRate = conf.Serial.BaudRate
	bridgeConf.SystemID = conf.MAVLink.SystemID
	bridgeConf.ComponentID = conf.MAVLink.ComponentID
	bridge := uartcomm.New(bridgeConf, uart.NewSerialDriver(conf.Serial.Port), table, motors)
	defer bridge.Close()

	runnables := []framework.Runnable{
		table.Runner(bus),
		framework.NamedRun("bridge", bridge),
	}
	if conf.MQTT.URL != "" {
		mirror, err := mqtt.NewMirror(conf.MQTT.URL, mqtt.Meta{
			Device:    conf.Device.ID,
			Serial:    conf.Serial.Port,
			CAN:       conf.CAN.Interface,
			BaudRate:  conf.Serial.BaudRate,
			SystemID:  conf.MAVLink.SystemID,
			Component: conf.MAVLink.ComponentID,
		}, bridge)
		if err != nil {
			return fmt.Errorf("create MQTT mirror error: %w", err)
		}
		bridge.OnReply = mirror.OnReply
		runnables = append(runnables, mirror)
	}
	if conf.Shell {
		runnables = append(runnables, sh.New(bridge, motors))
	}

	glog.Infof("uartcomm: %s at %d baud <-> %s", conf.Serial.Port, conf.Serial.BaudRate, conf.CAN.Interface)
	return framework.NewRunner().HandleSignals().Go(runnables...).Wait()
}

func main() {
	flag.Parse()
	err := run()
	if err != nil {
		glog.Error(err)
	}
	glog.Flush()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
