package realtime

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
)

const (
	DefaultBrokerURL   = "tcp://0.0.0.0:1883"
	DefaultTopicPrefix = "masjid/displays"

	tokenTimeout = 5 * time.Second
	quiesceMS    = 250
)

type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// MQTTChannel carries broadcasts over an MQTT broker. Events map onto topics
// under the configured prefix, so "command:broadcast" becomes
// "<prefix>/command/broadcast".
type MQTTChannel struct {
	client mqtt.Client
	prefix string
	qos    byte
	reg    *registry

	mu sync.Mutex // serialises handler changes with their broker calls
}

var _ ack.Channel = (*MQTTChannel)(nil)

// DialMQTT connects to the broker and returns a ready channel.
func DialMQTT(cfg MQTTConfig) (*MQTTChannel, error) {
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = DefaultBrokerURL
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	c := &MQTTChannel{
		prefix: strings.TrimRight(cfg.TopicPrefix, "/"),
		qos:    1,
		reg:    newRegistry(),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		log.Debug().Str("topic", msg.Topic()).Msg("unrouted mqtt message")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", cfg.BrokerURL).Msg("connected to MQTT broker")
		c.resubscribe()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(tokenTimeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.BrokerURL, err)
	}
	return c, nil
}

// Topic returns the MQTT topic an event travels on.
func (c *MQTTChannel) Topic(event string) string {
	return c.prefix + "/" + strings.ReplaceAll(event, ":", "/")
}

func (c *MQTTChannel) Connected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

func (c *MQTTChannel) Emit(event string, payload []byte) error {
	if !c.Connected() {
		return ack.ErrNotConnected
	}
	topic := c.Topic(event)
	token := c.client.Publish(topic, c.qos, false, payload)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("published")
	return nil
}

// On subscribes to the event's topic when fn is its first handler and
// unsubscribes when the last one detaches. c.mu covers both the registry
// change and the broker call so a detach cannot undo a newer subscribe.
func (c *MQTTChannel) On(event string, fn func([]byte)) func() {
	c.mu.Lock()
	id, first := c.reg.add(event, fn)
	if first {
		c.subscribe(event)
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.reg.remove(event, id) {
				c.unsubscribe(event)
			}
		})
	}
}

func (c *MQTTChannel) handler(event string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		c.reg.dispatch(event, msg.Payload())
	}
}

// subscribe and unsubscribe expect c.mu to be held.
func (c *MQTTChannel) subscribe(event string) {
	if c.client == nil {
		return
	}
	topic := c.Topic(event)
	token := c.client.Subscribe(topic, c.qos, c.handler(event))
	if !token.WaitTimeout(tokenTimeout) || token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", topic).Msg("failed to subscribe")
	}
}

func (c *MQTTChannel) unsubscribe(event string) {
	if c.client == nil {
		return
	}
	topic := c.Topic(event)
	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(tokenTimeout) || token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", topic).Msg("failed to unsubscribe")
	}
}

// resubscribe restores subscriptions after a reconnect with a clean session.
// It runs off the paho callback goroutine, which must not wait on tokens.
func (c *MQTTChannel) resubscribe() {
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, event := range c.reg.events() {
			c.subscribe(event)
		}
	}()
}

// Close disconnects from the broker.
func (c *MQTTChannel) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(quiesceMS)
		log.Info().Msg("MQTT client disconnected")
	}
}
