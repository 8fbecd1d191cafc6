// client.go: Package mqtt publishes analysis results to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/logging"
	"github.com/aveslab/perchview/internal/observability"
)

// Client publishes messages to an MQTT broker.
type Client interface {
	Connect(ctx context.Context) error
	PublishDetection(ctx context.Context, runID string, d *detection.Detection) error
	PublishRunComplete(ctx context.Context, runID, folder string, detections int) error
	Disconnect()
}

// Config holds MQTT connection parameters.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	Retain   bool
}

type client struct {
	config         Config
	internalClient mqtt.Client
	mu             sync.Mutex
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// detectionMessage is the JSON payload published per detection.
type detectionMessage struct {
	RunID      string  `json:"run_id"`
	Node       string  `json:"node"`
	FilePath   string  `json:"file_path"`
	Species    string  `json:"species"`
	Confidence float64 `json:"confidence"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
}

// runMessage is the JSON payload published when a run completes.
type runMessage struct {
	RunID      string    `json:"run_id"`
	Node       string    `json:"node"`
	Folder     string    `json:"folder"`
	Detections int       `json:"detections"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewClient creates a new MQTT client with the provided configuration.
func NewClient(settings *conf.Settings, metrics *observability.Metrics) Client {
	logger := logging.ForService("mqtt")
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		config: Config{
			Broker:   settings.MQTT.Broker,
			ClientID: settings.Main.Name,
			Topic:    settings.MQTT.Topic,
			Username: settings.MQTT.Username,
			Password: settings.MQTT.Password,
			Retain:   settings.MQTT.Retain,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Connect establishes a connection to the MQTT broker.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	c.internalClient = mqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return errors.Newf("MQTT connection timeout to %s", c.config.Broker).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(fmt.Errorf("MQTT connection error: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("broker", c.config.Broker).
			Build()
	}

	c.logger.Info("Connected to MQTT broker", "broker", c.config.Broker)
	return nil
}

// PublishDetection publishes one detection on <topic>/detection.
func (c *client) PublishDetection(ctx context.Context, runID string, d *detection.Detection) error {
	payload, err := json.Marshal(detectionMessage{
		RunID:      runID,
		Node:       c.config.ClientID,
		FilePath:   d.FilePath,
		Species:    d.Species,
		Confidence: d.Confidence,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
	})
	if err != nil {
		return err
	}
	return c.publish(ctx, c.config.Topic+"/detection", payload)
}

// PublishRunComplete publishes a run summary on <topic>/run.
func (c *client) PublishRunComplete(ctx context.Context, runID, folder string, detections int) error {
	payload, err := json.Marshal(runMessage{
		RunID:      runID,
		Node:       c.config.ClientID,
		Folder:     folder,
		Detections: detections,
		FinishedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return c.publish(ctx, c.config.Topic+"/run", payload)
}

func (c *client) publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil || !c.internalClient.IsConnected() {
		c.metrics.MQTTPublishFailures.Inc()
		return errors.NewStd("not connected to MQTT broker")
	}

	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		c.metrics.MQTTPublishFailures.Inc()
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		c.metrics.MQTTPublishFailures.Inc()
		return errors.New(fmt.Errorf("MQTT publish failed: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	c.metrics.MQTTPublishes.Inc()
	return nil
}

// Disconnect closes the broker connection.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(250)
	}
}
