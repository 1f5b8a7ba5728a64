package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/sensor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type token struct {
	done chan struct{}
	err  error
}

func newToken(err error, complete bool) *token {
	t := &token{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *token) Wait() bool { <-t.done; return true }
func (t *token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *token) Done() <-chan struct{} { return t.done }
func (t *token) Error() error          { return t.err }

var _ mqtt.Token = (*token)(nil)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	published    []published
	fail         error
	hang         bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hang {
		return newToken(nil, false)
	}
	if c.fail != nil {
		return newToken(c.fail, true)
	}
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newToken(nil, true)
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func TestNewMessage(t *testing.T) {
	ts := time.Date(2020, 1, 31, 9, 41, 11, 0, time.UTC)
	m := NewMessage(monitor.Reading{Timestamp: ts, Channel: sensor.Temperature, Whole: 23, Tenth: 4})
	assert.Equal(t, "temperature", m.Channel)
	assert.InDelta(t, 23.4, m.Value, 1e-9)
	assert.Equal(t, "°C", m.Unit)
	assert.False(t, m.Fault)
	assert.Equal(t, ts, m.Timestamp)

	m = NewMessage(monitor.Reading{Channel: sensor.Invalid, Fault: true})
	assert.Equal(t, "fault", m.Channel)
	assert.True(t, m.Fault)
	assert.Zero(t, m.Value)
}

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "lab/bench", 1, zerolog.Nop())

	r := monitor.Reading{Channel: sensor.Luminosity, Whole: 87, Tenth: 2}
	require.NoError(t, p.Publish(context.Background(), r))
	require.NoError(t, p.Publish(context.Background(), monitor.Reading{Channel: sensor.Invalid, Fault: true}))

	require.Len(t, client.published, 2)
	assert.Equal(t, "lab/bench/luminosity", client.published[0].topic)
	assert.Equal(t, byte(1), client.published[0].qos)
	assert.Equal(t, "lab/bench/fault", client.published[1].topic)

	var m Message
	require.NoError(t, json.Unmarshal(client.published[0].payload, &m))
	assert.Equal(t, "luminosity", m.Channel)
	assert.Equal(t, int64(87), m.Whole)
	assert.Equal(t, int64(2), m.Tenth)
	assert.Equal(t, "%", m.Unit)
}

func TestPublisher_PublishError(t *testing.T) {
	client := &fakeClient{fail: errors.New("not connected")}
	p := NewPublisher(client, "t", 0, zerolog.Nop())

	err := p.Publish(context.Background(), monitor.Reading{Channel: sensor.Temperature})
	assert.ErrorContains(t, err, "not connected")
}

func TestPublisher_PublishContext(t *testing.T) {
	client := &fakeClient{hang: true}
	p := NewPublisher(client, "t", 0, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.Publish(ctx, monitor.Reading{Channel: sensor.Temperature})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisher_Forward(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "t", 0, zerolog.Nop())

	in := make(chan monitor.Reading, 3)
	in <- monitor.Reading{Channel: sensor.Temperature, Whole: 23, Tenth: 4}
	in <- monitor.Reading{Channel: sensor.Luminosity, Whole: 52, Tenth: 4}
	in <- monitor.Reading{Channel: sensor.Temperature, Whole: 23, Tenth: 5}
	close(in)

	require.NoError(t, p.Forward(context.Background(), in))
	assert.Len(t, client.published, 3)

	p.Close()
	assert.True(t, client.disconnected)
}

func TestPublisher_ForwardSkipsFailures(t *testing.T) {
	client := &fakeClient{fail: errors.New("broker down")}
	p := NewPublisher(client, "t", 0, zerolog.Nop())

	in := make(chan monitor.Reading, 1)
	in <- monitor.Reading{Channel: sensor.Temperature}
	close(in)

	assert.NoError(t, p.Forward(context.Background(), in))
	assert.Empty(t, client.published)
}

func TestPublisher_ForwardCancelled(t *testing.T) {
	p := NewPublisher(&fakeClient{}, "t", 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Forward(ctx, make(chan monitor.Reading))
	assert.ErrorIs(t, err, context.Canceled)
}
