package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"firmata2mqtt/internal/bridge"
	"firmata2mqtt/internal/firmata"
	"firmata2mqtt/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	eventSegment   = "event"
	commandSegment = "cmd"
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	cmdCh     chan<- bridge.Command
}

// MQTTClient is a convenience interface to use within this application.
type MQTTClient interface {
	Start(ctx context.Context, cmdCh chan<- bridge.Command) error
	Stop() error
	Publish(ev firmata.Event)
}

// NewClient конструктор. Пустой ClientID заменяется случайным.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	if cfgClient.ClientID == "" {
		cfgClient.ClientID = "firmata2mqtt-" + uuid.NewString()[:8]
	}
	if cfgClient.TopicPrefix == "" {
		cfgClient.TopicPrefix = "firmata"
	}
	return &ClientMQTT{
		ctx:       context.Background(),
		log:       log,
		cfgClient: cfgClient,
	}
}

func (c *ClientMQTT) Start(ctx context.Context, cmdCh chan<- bridge.Command) error {
	if c.log.GetLevel() == "debug" || c.log.GetLevel() == "trace" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.cmdCh = cmdCh

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(true).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.Module("mqtt").Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

// Publish sends ev as JSON to <prefix>/event/<name>. Delivery is
// asynchronous; failures are logged.
func (c *ClientMQTT) Publish(ev firmata.Event) {
	if c.client == nil {
		c.log.Module("mqtt").Debugf("not started, dropped %s", ev)
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		c.log.Module("mqtt").Errorf("public topic. msg: %v", err)
		return
	}

	topic := eventTopic(c.cfgClient.TopicPrefix, ev.Name)
	token := c.client.Publish(topic, c.cfgClient.Qos, false, msg)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}()
}

// connectHandler (re)subscribes to the command topics on every connection.
func (c *ClientMQTT) connectHandler(client mqtt.Client) {
	c.log.Module("mqtt").Info("client connected to server")

	topic := commandFilter(c.cfgClient.TopicPrefix)
	token := client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.Module("mqtt").Debugf("topic %s subscribed", topic)
	}()
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Module("mqtt").Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Module("mqtt").Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	c.handleMessage(msg.Topic(), msg.Payload())
}

func (c *ClientMQTT) handleMessage(topic string, payload []byte) {
	cmd, err := parseCommand(c.cfgClient.TopicPrefix, topic, payload)
	if err != nil {
		c.log.Module("mqtt").Errorf("message could not be parsed (%s): %v", payload, err)
		return
	}
	select {
	case c.cmdCh <- cmd:
	case <-c.ctx.Done():
	}
}

func eventTopic(prefix string, name firmata.EventName) string {
	return fmt.Sprintf("%s/%s/%s", prefix, eventSegment, name)
}

func commandFilter(prefix string) string {
	return fmt.Sprintf("%s/%s/+", prefix, commandSegment)
}

// parseCommand turns <prefix>/cmd/<kind> with a JSON payload into a bridge
// command. The string command also accepts a plain-text payload.
func parseCommand(prefix, topic string, payload []byte) (bridge.Command, error) {
	kind := strings.TrimPrefix(topic, fmt.Sprintf("%s/%s/", prefix, commandSegment))
	if kind == topic || kind == "" || strings.Contains(kind, "/") {
		return bridge.Command{}, fmt.Errorf("unexpected topic %q", topic)
	}

	cmd := bridge.Command{Kind: bridge.CommandKind(kind)}
	switch cmd.Kind {
	case bridge.CommandAnalog, bridge.CommandDigital, bridge.CommandString:
	default:
		return bridge.Command{}, fmt.Errorf("unknown command %q", kind)
	}

	var data commandPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		if cmd.Kind != bridge.CommandString {
			return bridge.Command{}, err
		}
		data.Text = string(payload)
	}
	cmd.Pin = data.Pin
	cmd.Value = data.Value
	cmd.Text = data.Text
	return cmd, nil
}
