package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/Agrid-Dev/renotherm/internal/ports"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

type Config struct {
	// Identity
	ProjectID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string

	Logger *zap.Logger
}

type Controller struct {
	svc ports.ProjectService
	cfg Config
	log *zap.Logger

	client mqtt.Client
}

var errUnknownCommand = errors.New("unknown command")

func New(svc ports.ProjectService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.ProjectID == "" {
		return nil, errors.New("mqtt: ProjectID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "renotherm/" + cfg.ProjectID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "renotherm-" + cfg.ProjectID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.With(zap.String("controller", "mqtt"), zap.String("project_id", cfg.ProjectID)),
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		topic := c.topic("set/#")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.log.Info("connected", zap.String("broker", c.cfg.BrokerURL), zap.String("base_topic", c.cfg.BaseTopic))

	// Publish loop: publish on interval, and only when the project changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := c.svc.Get()
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur := c.svc.Get()
			if !reflect.DeepEqual(cur, last) {
				c.publish()
				last = cur
			}
		}
	}
}

func (c *Controller) publish() {
	c.publishSnapshot()
	c.publishResults()
}

func (c *Controller) publishSnapshot() {
	b, err := json.Marshal(toSnapshotDTO(c.svc.Get()))
	if err != nil {
		c.log.Error("encode snapshot", zap.Error(err))
		return
	}
	c.client.Publish(c.topic("snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
}

func (c *Controller) publishResults() {
	var payload any
	if res, err := c.svc.Results(); err != nil {
		payload = map[string]string{"error": err.Error()}
	} else {
		payload = toResultsDTO(res)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("encode results", zap.Error(err))
		return
	}
	c.client.Publish(c.topic("results"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<field> or <base>/set/<stage>/<field>
	t := msg.Topic()
	prefix := strings.TrimRight(c.cfg.BaseTopic, "/") + "/set/"
	if !strings.HasPrefix(t, prefix) {
		return
	}
	field := strings.TrimPrefix(t, prefix)

	if err := c.dispatch(field, msg.Payload()); err != nil {
		c.log.Warn("command rejected", zap.String("topic", t), zap.Error(err))
	}
}

func (c *Controller) dispatch(field string, payload []byte) error {
	switch field {
	case "project_type":
		v, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		c.svc.SetProjectType(v)
		return nil

	case "surface_area":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetSurfaceArea(v)

	case "roof_area":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetRoofArea(v)

	case "climate_zone":
		s, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		z, err := thermal.ParseClimateZone(s)
		if err != nil {
			return err
		}
		return c.svc.SetClimateZone(z)

	case "copy_before_to_after":
		c.svc.CopyBeforeToAfter()
		return nil
	}

	stageStr, rest, ok := strings.Cut(field, "/")
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownCommand, field)
	}
	stage, err := thermal.ParseStage(stageStr)
	if err != nil {
		return err
	}

	switch rest {
	case "ratio":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetRatio(stage, v)

	case "ventilation":
		s, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		vc, err := thermal.ParseVentilationCase(s)
		if err != nil {
			return err
		}
		return c.svc.SetVentilation(stage, vc)

	case "surface_resistances":
		v, err := decodeValueStrict[surfaceResistancesReq](payload)
		if err != nil {
			return err
		}
		return c.svc.SetSurfaceResistances(stage, v.Rsi, v.Rse)

	case "layers/add":
		v, err := decodeValueStrict[layerReq](payload)
		if err != nil {
			return err
		}
		l, err := v.toLayer()
		if err != nil {
			return err
		}
		_, err = c.svc.AddLayer(stage, l)
		return err

	case "layers/update":
		v, err := decodeValueStrict[layerReq](payload)
		if err != nil {
			return err
		}
		if v.ID == "" {
			return errors.New("layers/update: missing id")
		}
		l, err := v.toLayer()
		if err != nil {
			return err
		}
		_, err = c.svc.UpdateLayer(stage, v.ID, l)
		return err

	case "layers/delete":
		id, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		return c.svc.DeleteLayer(stage, id)
	}
	return fmt.Errorf("%w: %q", errUnknownCommand, field)
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
