package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	token        *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestNotify(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: true}}
	m := &MQTT{cfg: Config{Topic: "home/snapshot", QoS: 1, Retain: true}, client: client}

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	err := m.Notify(context.Background(), Event{
		EntityID:   "camera.front_door",
		Mode:       "stream",
		Path:       "/config/www/snapshots/last.jpg",
		Size:       1234,
		CapturedAt: at,
	})
	require.NoError(t, err)

	require.Len(t, client.published, 1)
	p := client.published[0]
	assert.Equal(t, "home/snapshot", p.topic)
	assert.EqualValues(t, 1, p.qos)
	assert.True(t, p.retained)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(p.payload, &got))
	assert.Equal(t, "camera.front_door", got["entity_id"])
	assert.Equal(t, "stream", got["mode"])
	assert.Equal(t, "/config/www/snapshots/last.jpg", got["path"])
	assert.EqualValues(t, 1234, got["size"])
	assert.Equal(t, "2026-10-17T12:00:00Z", got["captured_at"])

	m.Close()
	assert.True(t, client.disconnected)
}

func TestNotifyFailures(t *testing.T) {
	m := &MQTT{cfg: Config{Topic: "t"}, client: &fakeClient{token: &fakeToken{done: false}}}
	assert.ErrorIs(t, m.Notify(context.Background(), Event{}), ErrPublishFailed)

	boom := errors.New("not connected")
	m = &MQTT{cfg: Config{Topic: "t"}, client: &fakeClient{token: &fakeToken{done: true, err: boom}}}
	err := m.Notify(context.Background(), Event{})
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.ErrorIs(t, err, boom)
}

func TestConnectRequiresTopic(t *testing.T) {
	_, err := Connect(Config{Broker: "tcp://127.0.0.1:1883"})
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestBuildClientOptions(t *testing.T) {
	opts := buildClientOptions(Config{
		Broker:         "tcp://broker:1883",
		ClientID:       "hasnatch",
		Username:       "user",
		Password:       "pass",
		ConnectTimeout: 3 * time.Second,
	})

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker:1883", opts.Servers[0].Host)
	assert.Equal(t, "hasnatch", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "pass", opts.Password)
	assert.True(t, opts.CleanSession)
	assert.False(t, opts.AutoReconnect)
	assert.Equal(t, 3*time.Second, opts.ConnectTimeout)
}
