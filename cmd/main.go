package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firmata2mqtt/internal/artnet"
	"firmata2mqtt/internal/bridge"
	"firmata2mqtt/internal/clientmqtt"
	"firmata2mqtt/internal/config"
	"firmata2mqtt/internal/firmata"
	"firmata2mqtt/internal/logger"
	"firmata2mqtt/internal/serialport"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debugFlag  bool
)

const shutdownTimeout = 2 * time.Second

var rootCmd = &cobra.Command{
	Use:               "firmata2mqtt",
	Short:             "Firmata board on a serial line, bridged to MQTT and Art-Net",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "Turn on debugging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration file read error: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create a logger: %w", err)
	}
	if debugFlag {
		_ = log.SetLevel("debug")
	}
	log.Module("logger").Debug("newLogger created ok")

	port, err := serialport.Open(ConvertConfigSerial(cfg.Serial))
	if err != nil {
		return err
	}
	log.Module("serial").Infof("opened %s at %d baud", port.Device(), cfg.Serial.Baud)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	client := clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
	log.Module("mqtt").Debug("NewClient created ok")

	// Каналы для передачи.
	cmdCh := make(chan bridge.Command, 10)
	var pinCh chan bridge.PinValue

	var a *artnet.ArtNet
	if cfg.ArtNet.Enabled {
		a, err = artnet.NewController(log, ConvertConfigArtNet(cfg.ArtNet))
		if err != nil {
			_ = port.Close()
			return fmt.Errorf("error while creating a new controller art-net: %w", err)
		}
		log.Module("art-net").Debug("NewController created ok")
		pinCh = make(chan bridge.PinValue, 64)
	}

	parser := firmata.NewParser(firmata.WithMaxSysexSize(cfg.Serial.MaxSysex))
	b := bridge.NewBridge(log, port, parser, ConvertPins(cfg.Pins), bridge.Sinks{Events: client, Pins: pinCh})

	if err = client.Start(ctx, cmdCh); err != nil {
		log.Error("failed to start MQTT service: ", err.Error())
		cancel()
	}

	if a != nil {
		if err = a.Start(ctx, pinCh); err != nil {
			log.Error("failed to start art-net service: ", err.Error())
			cancel()
		}
	}

	b.Start(ctx, cmdCh)
	log.Module("bridge").Info("waiting for the firmata host")

	<-ctx.Done()

	if err := client.Stop(); err != nil {
		log.Error("failed to stop MQTT service: ", err.Error())
	}

	if a != nil {
		a.Stop()
	}

	if err := port.Close(); err != nil {
		log.Error("failed to close serial port: ", err.Error())
	}

	select {
	case <-b.Done():
	case <-time.After(shutdownTimeout):
		log.Warn("bridge read loop did not stop in time")
	}

	log.Info("shutdown complete")
	return nil
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:    cfg.ClientID,
		Schema:      "tcp",
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Qos:         cfg.Qos,
		TopicPrefix: cfg.TopicPrefix,
	}
}

// ConvertConfigSerial преобразует структуры.
func ConvertConfigSerial(cfg config.SerialConf) *serialport.Config {
	sc := serialport.DefaultConfig(cfg.Device)
	if cfg.Baud > 0 {
		sc.Baud = cfg.Baud
	}
	sc.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Millisecond
	return sc
}

// ConvertConfigArtNet преобразует структуры.
func ConvertConfigArtNet(cfg config.ArtNetConf) artnet.Conf {
	return artnet.Conf{
		AddressRange: cfg.AddressRange,
		Universe:     cfg.Universe,
		MaxFPS:       cfg.MaxFPS,
	}
}

// ConvertPins преобразует описание выводов для отчётов Firmata.
func ConvertPins(pins []config.PinConf) []firmata.PinCapability {
	out := make([]firmata.PinCapability, len(pins))
	for i, p := range pins {
		out[i] = firmata.PinCapability{
			Digital:       p.Digital,
			Analog:        p.Analog,
			PWM:           p.PWM,
			Servo:         p.Servo,
			I2C:           p.I2C,
			AnalogChannel: p.AnalogChannel,
		}
	}
	return out
}
