package mqttctrl

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Agrid-Dev/renotherm/internal/testutil"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct {
	err  error
	done chan struct{}
}

func (t fakeToken) Done() <-chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
		close(t.done)
	}
	return t.done
}

func (t fakeToken) Wait() bool                       { return true }
func (t fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t fakeToken) Error() error                     { return t.err }

type publishCall struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	publishes []publishCall
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return fakeToken{} }
func (c *fakeClient) Disconnect(_ uint)      {}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = append([]byte(nil), v...)
	case string:
		b = []byte(v)
	default:
		tmp, _ := json.Marshal(v)
		b = tmp
	}
	c.publishes = append(c.publishes, publishCall{
		topic: topic, qos: qos, retain: retained, payload: b,
	})
	return fakeToken{}
}
func (c *fakeClient) Subscribe(_ string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Unsubscribe(_ ...string) mqtt.Token       { return fakeToken{} }
func (c *fakeClient) AddRoute(_ string, _ mqtt.MessageHandler) {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader  { return mqtt.ClientOptionsReader{} }

// ---- tests ----
func newDefaultSvc() *testutil.FakeProjectService {
	return testutil.NewFakeProjectService()
}

func newTestController(t *testing.T, svc *testutil.FakeProjectService) (*Controller, *fakeClient) {
	t.Helper()
	c, err := New(svc, Config{ProjectID: "attic42"})
	if err != nil {
		t.Fatal(err)
	}
	fc := &fakeClient{}
	c.client = fc
	return c, fc
}

func send(c *Controller, field, payload string) {
	c.onMessage(nil, fakeMessage{
		topic:   "renotherm/attic42/set/" + field,
		payload: []byte(payload),
	})
}

func TestNewDefaults(t *testing.T) {
	svc := newDefaultSvc()
	c, err := New(svc, Config{ProjectID: "attic42"})
	if err != nil {
		t.Fatal(err)
	}

	if c.cfg.BrokerURL != "tcp://localhost:1883" {
		t.Fatalf("expected default BrokerURL, got %q", c.cfg.BrokerURL)
	}
	if c.cfg.BaseTopic != "renotherm/attic42" {
		t.Fatalf("expected default BaseTopic, got %q", c.cfg.BaseTopic)
	}
	if c.cfg.ClientID != "renotherm-attic42" {
		t.Fatalf("expected default ClientID, got %q", c.cfg.ClientID)
	}
	if c.cfg.PublishInterval != 1*time.Second {
		t.Fatalf("expected default PublishInterval, got %v", c.cfg.PublishInterval)
	}
}

func TestNewValidation(t *testing.T) {
	svc := newDefaultSvc()

	if _, err := New(svc, Config{}); err == nil {
		t.Fatal("expected error when ProjectID missing")
	}

	if _, err := New(svc, Config{ProjectID: "x", QoS: 2}); err == nil {
		t.Fatal("expected error when QoS > 1")
	}
}

func TestTopicJoin(t *testing.T) {
	svc := newDefaultSvc()
	c, err := New(svc, Config{ProjectID: "attic42", BaseTopic: "renotherm/attic42/"})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.topic("snapshot"); got != "renotherm/attic42/snapshot" {
		t.Fatalf("expected topic without double slashes, got %q", got)
	}
}

func TestDecodeValueStrict(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v, err := decodeValueStrict[float64]([]byte(`{"value": 12.5}`))
		if err != nil {
			t.Fatal(err)
		}
		if v != 12.5 {
			t.Fatalf("expected 12.5, got %v", v)
		}
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := decodeValueStrict[float64]([]byte(`{}`))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := decodeValueStrict[string]([]byte(`{"value":"caso1","extra":1}`))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := decodeValueStrict[string]([]byte(`{"value":`))
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestOnMessage_IgnoresWrongPrefix(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	c.onMessage(nil, fakeMessage{
		topic:   "otherprefix/set/surface_area",
		payload: []byte(`{"value":12}`),
	})

	if svc.SetSurfaceAreaCalled {
		t.Fatal("expected SetSurfaceArea not called")
	}
}

func TestOnMessage_Areas(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	send(c, "surface_area", `{"value":64}`)
	send(c, "roof_area", `{"value":80.5}`)

	if !svc.SetSurfaceAreaCalled || svc.SetSurfaceAreaArg != 64 {
		t.Fatalf("expected SetSurfaceArea(64), got called=%v arg=%v", svc.SetSurfaceAreaCalled, svc.SetSurfaceAreaArg)
	}
	if !svc.SetRoofAreaCalled || svc.SetRoofAreaArg != 80.5 {
		t.Fatalf("expected SetRoofArea(80.5), got called=%v arg=%v", svc.SetRoofAreaCalled, svc.SetRoofAreaArg)
	}
}

func TestOnMessage_ClimateZone(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	send(c, "climate_zone", `{"value":"alpha3"}`)

	if !svc.SetClimateZoneCalled || svc.SetClimateZoneArg != "α3" {
		t.Fatalf("expected SetClimateZone(α3), got called=%v arg=%v", svc.SetClimateZoneCalled, svc.SetClimateZoneArg)
	}
}

func TestOnMessage_StageCommands(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	send(c, "after/ratio", `{"value":1.6}`)
	send(c, "before/ventilation", `{"value":"caso2"}`)
	send(c, "after/surface_resistances", `{"value":{"rsi":0.13,"rse":0.04}}`)

	if !svc.SetRatioCalled || svc.SetRatioStage != thermal.StageAfter || svc.SetRatioArg != 1.6 {
		t.Fatalf("expected SetRatio(after, 1.6), got called=%v stage=%v arg=%v", svc.SetRatioCalled, svc.SetRatioStage, svc.SetRatioArg)
	}
	if !svc.SetVentilationCalled || svc.SetVentilationStage != thermal.StageBefore || svc.SetVentilationArg != thermal.VentilationCase2 {
		t.Fatalf("expected SetVentilation(before, caso2), got called=%v stage=%v arg=%v",
			svc.SetVentilationCalled, svc.SetVentilationStage, svc.SetVentilationArg)
	}
	if !svc.SetSurfaceResistancesCalled || svc.SetSurfaceResistancesRsi != 0.13 || svc.SetSurfaceResistancesRse != 0.04 {
		t.Fatalf("expected SetSurfaceResistances(0.13, 0.04), got called=%v rsi=%v rse=%v",
			svc.SetSurfaceResistancesCalled, svc.SetSurfaceResistancesRsi, svc.SetSurfaceResistancesRse)
	}
}

func TestOnMessage_Layers(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	send(c, "after/layers/add", `{"value":{"name":"air","thickness":20,"lambda":"-","r":0.17}}`)
	if !svc.AddLayerCalled || svc.AddLayerArg.Kind != thermal.LayerAirGap {
		t.Fatalf("expected AddLayer(air gap), got called=%v arg=%+v", svc.AddLayerCalled, svc.AddLayerArg)
	}

	send(c, "before/layers/update", `{"value":{"id":"b1","name":"slab","thickness":300,"lambda":0.5}}`)
	if !svc.UpdateLayerCalled || svc.UpdateLayerID != "b1" || svc.UpdateLayerArg.Thickness != 300 {
		t.Fatalf("expected UpdateLayer(b1), got called=%v id=%v arg=%+v", svc.UpdateLayerCalled, svc.UpdateLayerID, svc.UpdateLayerArg)
	}

	send(c, "before/layers/delete", `{"value":"b1"}`)
	if !svc.DeleteLayerCalled || svc.DeleteLayerID != "b1" {
		t.Fatalf("expected DeleteLayer(b1), got called=%v id=%v", svc.DeleteLayerCalled, svc.DeleteLayerID)
	}
}

func TestOnMessage_CopyBeforeToAfter(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := newTestController(t, svc)

	send(c, "copy_before_to_after", `{}`)
	if !svc.CopyCalled {
		t.Fatal("expected CopyBeforeToAfter called")
	}
}

func TestOnMessage_Invalid_DoesNotCallService(t *testing.T) {
	tests := []struct {
		field   string
		payload string
	}{
		{"before/ventilation", `{"value":"caso7"}`},
		{"during/ratio", `{"value":1}`},
		{"climate_zone", `{"value":"Q1"}`},
		{"after/layers/add", `{"value":{"name":"steel","thickness":5,"lambda":50}}`},
		{"after/layers/add", `{"value":{"name":"wool","thickness":5,"lambda":true}}`},
		{"after/layers/update", `{"value":{"name":"wool","thickness":5,"lambda":0.04}}`},
		{"after/layers/update", `{"value":{"id":"a1","name":"wool","thickness":0,"lambda":0.04}}`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			svc := newDefaultSvc()
			c, _ := newTestController(t, svc)
			send(c, tt.field, tt.payload)
			if svc.SetVentilationCalled || svc.SetRatioCalled || svc.SetClimateZoneCalled || svc.AddLayerCalled || svc.UpdateLayerCalled {
				t.Fatalf("expected service not called for %s", tt.field)
			}
		})
	}
}

func TestOnMessage_RejectionIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newDefaultSvc()
	c, err := New(svc, Config{ProjectID: "attic42", Logger: zap.New(core)})
	if err != nil {
		t.Fatal(err)
	}
	c.client = &fakeClient{}

	send(c, "unknown_field", `{"value":1}`)

	if logs.FilterMessage("command rejected").Len() != 1 {
		t.Fatalf("expected one rejection log, got %v", logs.All())
	}
}

func TestPublish_PublishesSnapshotAndResults(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{ProjectID: "attic42", QoS: 1, RetainSnapshot: true})

	fc := &fakeClient{}
	c.client = fc

	c.publish()

	if len(fc.publishes) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(fc.publishes))
	}

	p := fc.publishes[0]
	if p.topic != "renotherm/attic42/snapshot" {
		t.Fatalf("expected snapshot topic, got %q", p.topic)
	}
	if p.qos != 1 || p.retain != true {
		t.Fatalf("expected qos=1 retain=true, got qos=%d retain=%v", p.qos, p.retain)
	}

	var snap map[string]any
	if err := json.Unmarshal(p.payload, &snap); err != nil {
		t.Fatalf("invalid published json: %v payload=%s", err, string(p.payload))
	}
	if snap["climate_zone"] != "D3" {
		t.Fatalf("expected climate_zone=D3, got %v", snap["climate_zone"])
	}

	r := fc.publishes[1]
	if r.topic != "renotherm/attic42/results" {
		t.Fatalf("expected results topic, got %q", r.topic)
	}
	var res map[string]any
	if err := json.Unmarshal(r.payload, &res); err != nil {
		t.Fatalf("invalid published json: %v payload=%s", err, string(r.payload))
	}
	if res["meets_requirements"] != true {
		t.Fatalf("expected meets_requirements=true, got %v", res["meets_requirements"])
	}
	for _, k := range []string{"up_value_before", "up_value_after"} {
		if v, ok := res[k].(float64); !ok || !(v > 0) {
			t.Fatalf("expected positive %s, got %v", k, res[k])
		}
	}
}

func TestPublish_ResultsError(t *testing.T) {
	svc := newDefaultSvc()
	svc.ResultsErr = errors.New("boom")
	c, fc := newTestController(t, svc)

	c.publishResults()

	var res map[string]any
	if err := json.Unmarshal(fc.publishes[0].payload, &res); err != nil {
		t.Fatal(err)
	}
	if res["error"] != "boom" {
		t.Fatalf("expected error=boom, got %v", res)
	}
}

// Service errors are logged, not returned to the broker.
func TestOnMessage_ServiceError_IsIgnored(t *testing.T) {
	svc := newDefaultSvc()
	svc.SetSurfaceAreaErr = errors.New("boom")
	c, _ := newTestController(t, svc)

	send(c, "surface_area", `{"value":25}`)

	if !svc.SetSurfaceAreaCalled {
		t.Fatal("expected SetSurfaceArea called")
	}
}
