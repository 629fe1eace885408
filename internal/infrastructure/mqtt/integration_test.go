//go:build integration

package mqtt

import (
	"errors"
	"testing"
	"time"
)

// These tests need a broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func connectTest(t *testing.T, clientID string) *Client {
	t.Helper()

	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	cfg.TopicPrefix = "xgparam-test"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIntegration_Connect(t *testing.T) {
	client := connectTest(t, "xgparam-int-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19998

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_CommandRoundtrip(t *testing.T) {
	client := connectTest(t, "xgparam-int-roundtrip")
	topics := client.Topics()

	received := make(chan string, 1)
	err := client.Subscribe(topics.AllCommands(), 1, func(topic string, payload []byte) error {
		if category, ok := topics.CommandCategory(topic); ok {
			received <- category + ":" + string(payload)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := client.Publish(topics.Command("system"), []byte(`{"address":"00/00/04","value":100}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != `system:{"address":"00/00/04","value":100}` {
			t.Errorf("received %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not received")
	}

	if err := client.Unsubscribe(topics.AllCommands()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topics.AllCommands()) {
		t.Error("subscription still tracked after Unsubscribe")
	}
}

func TestIntegration_PublishJSONRetained(t *testing.T) {
	client := connectTest(t, "xgparam-int-json")

	topic := client.Topics().State("system", "000004")
	if err := client.PublishJSON(topic, map[string]int{"value": 100}, true); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if err := client.PublishRetained(topic, nil); err != nil {
		t.Errorf("clearing retained message: %v", err)
	}
}
