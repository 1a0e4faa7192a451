package live_test

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brewdesk/pkg/live"
	"github.com/example/brewdesk/pkg/models"
)

func TestDecodeEnvelope(t *testing.T) {
	ev, err := live.Decode([]byte(`{"type":"order.created","order":{"id":"o1","status":"pending","total":77700}}`))

	require.NoError(t, err)
	assert.Equal(t, models.EventOrderCreated, ev.Type)
	assert.Equal(t, "o1", ev.Order.ID)
	assert.Equal(t, int64(77700), ev.Order.Total)
}

func TestDecodeBareOrder(t *testing.T) {
	ev, err := live.Decode([]byte(`{"id":"o2","status":"ready"}`))

	require.NoError(t, err)
	assert.Equal(t, models.EventOrderUpdated, ev.Type)
	assert.Equal(t, models.StatusReady, ev.Order.Status)
}

func TestDecodeRejects(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"type":"order.deleted","order":{"id":"o1"}}`,
		`{"type":"order.updated","order":{"status":"ready"}}`,
	} {
		_, err := live.Decode([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestNopBlocksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := live.Nop{}.Run(ctx, func(models.OrderEvent) { t.Fatal("unexpected event") })

	assert.NoError(t, err)
	assert.NoError(t, live.Nop{}.Close())
}

// The sarama mock producer stands in for the upstream publisher: the payload
// it accepts must decode on our side.
func TestProducedEventDecodes(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	var captured []byte
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		captured = val
		return nil
	})

	_, _, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: "orders",
		Value: sarama.StringEncoder(`{"type":"order.updated","order":{"id":"o9","status":"preparing"}}`),
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())

	ev, err := live.Decode(captured)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, ev.Order.Status)
}
