package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"firmata2mqtt/internal/bridge"
	"firmata2mqtt/internal/logger"
	"github.com/Haba1234/go-artnet"
)

const (
	dmxMax = 255

	nodeReportInterval = 30 * time.Second
)

// ArtNet mirrors the pin levels written by the Firmata host into one DMX
// universe: pin N drives channel N.
type ArtNet struct {
	logger      logger.Logger
	sender      *artnet.Controller
	state       *State
	universe    uint16
	sendTrigger chan struct{}
	ctx         context.Context
	pinCh       <-chan bridge.PinValue
}

// Controller is a convenience interface to use within this application.
type Controller interface {
	SetDMXChannelValue(value ChannelValue)
	SetDMXChannelValues(values []ChannelValue)
	Start(ctx context.Context, pinCh <-chan bridge.PinValue) error
	Stop()
}

// NewController returns an art-net Controller bound to the interface inside cfg.AddressRange.
func NewController(log logger.Logger, cfg Conf) (*ArtNet, error) {
	ip, err := FindArtNetIP(cfg.AddressRange)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}

	if len(ip) == 0 {
		return nil, errors.New("failed to find the art-net IP: No interface found")
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}

	host = strings.ToLower(strings.Split(host, ".")[0])
	log.Module("art-net").Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	senderLogger := artnet.NewDefaultLogger("info")

	fps := cfg.MaxFPS
	if fps <= 0 {
		fps = 1
	}

	control := &ArtNet{
		logger:      log,
		sender:      artnet.NewController(host, ip, senderLogger, artnet.MaxFPS(fps)),
		state:       NewState(),
		universe:    cfg.Universe,
		sendTrigger: make(chan struct{}, 1),
	}

	return control, nil
}

// Start the ArtNet.
func (c *ArtNet) Start(ctx context.Context, pinCh <-chan bridge.PinValue) error {
	if err := c.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}

	c.ctx = ctx
	c.pinCh = pinCh
	go c.sendBackground()
	go c.debugDevices()
	go c.dataProcessing()
	return nil
}

// Stop the ArtNet.
func (c *ArtNet) Stop() {
	c.sender.Stop()
}

func (c *ArtNet) SetDMXChannelValue(value ChannelValue) {
	c.state.SetChannel(value.Universe, value.Channel, value.Value)
	c.triggerSend()
}

func (c *ArtNet) SetDMXChannelValues(values []ChannelValue) {
	c.state.SetChannelValues(values)
	c.triggerSend()
}

func (c *ArtNet) triggerSend() {
	// A queued trigger reads the state when it runs, so one is enough.
	select {
	case c.sendTrigger <- struct{}{}:
	default:
	}
}

func (c *ArtNet) sendBackground() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.sendTrigger:
			for u, dmx := range c.state.Get() {
				c.logger.Module("art-net").Tracef("DMX. send to universe %v", u)
				c.sender.SendDMXToAddress(dmx.toByteSlice(), universeToAddress(u))
			}
		}
	}
}

func (c *ArtNet) dataProcessing() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case v, ok := <-c.pinCh:
			if !ok {
				return
			}
			c.SetDMXChannelValue(toChannelValue(c.universe, v))
		}
	}
}

// toChannelValue maps a pin level to its DMX channel. Analog values are
// PWM duty cycles; values above 8 bits saturate. Digital levels map to 0
// or full.
func toChannelValue(universe uint16, v bridge.PinValue) ChannelValue {
	value := uint8(0)
	switch {
	case !v.Analog && v.Value != 0:
		value = dmxMax
	case v.Value > dmxMax:
		value = dmxMax
	case v.Analog:
		value = uint8(v.Value)
	}
	return ChannelValue{Universe: universe, Channel: uint16(v.Pin), Value: value}
}

// universeToAddress converts a dmx universe to art-net address
// universe: старший байт - SubUni, младший байт - Net.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}

// NodeToString returns a string representation of the given Node.
func NodeToString(n *artnet.ControlledNode) string {
	var inputs, outputs []string
	for _, p := range n.Node.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	for _, p := range n.Node.OutputPorts {
		outputs = append(outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	return fmt.Sprintf(
		" | IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.UDPAddress.String(), n.Node.Name, n.Node.Type,
		n.Node.Manufacturer, n.Node.Description,
		strings.Join(inputs, "; "), strings.Join(outputs, "; "),
	)
}

func (c *ArtNet) debugDevices() {
	t := time.NewTicker(nodeReportInterval)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			var nodes []string
			for _, n := range c.sender.Nodes {
				nodes = append(nodes, NodeToString(n))
			}
			c.logger.Module("art-net").Debugf("Currently %d devices are registered: %v", len(nodes), nodes)
		}
	}
}
