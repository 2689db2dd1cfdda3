package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

const (
	publishTimeout  = 5 * time.Second
	disconnectQuiet = 250
)

// publisher is the part of mqtt.Client used to deliver alerts.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes alerts as JSON to "<topic>/<prayer>" so displays can
// subscribe to all prayers with "<topic>/#" or to a single one.
type MQTTNotifier struct {
	client publisher
	topic  string
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTClient connects to the broker with auto-reconnect.
func NewMQTTClient(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// Disconnect closes an MQTT client, letting in-flight work finish.
func Disconnect(client mqtt.Client) {
	if client != nil {
		client.Disconnect(disconnectQuiet)
		log.Info().Msg("MQTT client disconnected")
	}
}

func NewMQTTNotifier(client publisher, topic string) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: strings.TrimSuffix(topic, "/")}
}

func (n *MQTTNotifier) Notify(ctx context.Context, alert model.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", n.topic, strings.ToLower(string(alert.Prayer)))
	token := n.client.Publish(topic, 1, false, payload)

	wait := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publishing alert to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing alert to %s: %w", topic, err)
	}

	log.Debug().Str("topic", topic).Str("alert_id", alert.ID).Msg("alert published via MQTT")
	return nil
}
