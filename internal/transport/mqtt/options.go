package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the initial
	// connection before letting the retry loop continue in the background.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// macWaitTimeout is how long GetMACAddress waits for the device to
	// report its MAC before returning whatever is known.
	macWaitTimeout = 3 * time.Second

	// clientIDSuffixLen is the number of random characters appended to the
	// configured client id so concurrent daemons do not evict each other.
	clientIDSuffixLen = 8

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from the daemon config.
//
// This configures:
//   - Broker URL (ws:// or wss:// with the websocket path)
//   - Randomised client ID (prefix from config plus a UUID suffix)
//   - Authentication credentials (if provided)
//   - Auto-reconnect at a fixed initial interval with a capped backoff
//   - TLS configuration (if enabled)
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "ws"
	if cfg.Broker.TLS {
		scheme = "wss"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d%s", scheme, cfg.Broker.Host, cfg.Broker.Port, cfg.Broker.Path)
	opts.AddBroker(brokerURL)

	opts.SetClientID(randomClientID(cfg.Broker.ClientID))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session: device state topics are retained on the broker, so a
	// fresh session still receives the full state on subscribe.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// randomClientID appends a short random suffix to the configured prefix.
// The broker disconnects the older of two sessions sharing a client id.
func randomClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:clientIDSuffixLen]
}
