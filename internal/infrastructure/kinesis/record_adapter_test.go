package kinesis

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backend/internal/event"
)

func validEnvelopeJSON(t *testing.T, id string) []byte {
	t.Helper()
	env, err := event.New("t1", "user-1", event.KindSale, "SaleCreated", map[string]string{"k": "v"})
	require.NoError(t, err)
	env.ID = id
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return data
}

func TestConvertFromKinesisRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		record := events.KinesisEventRecord{
			EventID: "kinesis-event-1",
			Kinesis: events.KinesisRecord{
				Data: validEnvelopeJSON(t, "event-123"),
			},
		}

		env, err := ConvertFromKinesisRecord(record)
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, "event-123", env.ID)
		assert.Equal(t, "t1", env.TenantID)
		assert.Equal(t, event.KindSale, env.Kind)
		assert.Equal(t, "SaleCreated", env.Type)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		record := events.KinesisEventRecord{
			Kinesis: events.KinesisRecord{Data: []byte("not json")},
		}

		env, err := ConvertFromKinesisRecord(record)
		assert.Error(t, err)
		assert.Nil(t, env)
	})

	t.Run("missing required fields", func(t *testing.T) {
		record := events.KinesisEventRecord{
			Kinesis: events.KinesisRecord{Data: []byte(`{"tenant_id":"t1"}`)},
		}

		env, err := ConvertFromKinesisRecord(record)
		assert.Error(t, err)
		assert.Nil(t, env)
	})
}

func TestBatchConvertFromKinesisEvent(t *testing.T) {
	kinesisEvent := events.KinesisEvent{
		Records: []events.KinesisEventRecord{
			{EventID: "1", Kinesis: events.KinesisRecord{Data: validEnvelopeJSON(t, "event-1")}},
			{EventID: "2", Kinesis: events.KinesisRecord{Data: []byte("invalid json")}},
			{EventID: "3", Kinesis: events.KinesisRecord{Data: validEnvelopeJSON(t, "event-3")}},
		},
	}

	envelopes, errs := BatchConvertFromKinesisEvent(kinesisEvent)

	require.Len(t, envelopes, 2)
	assert.Len(t, errs, 1)
	assert.Equal(t, "event-1", envelopes[0].ID)
	assert.Equal(t, "event-3", envelopes[1].ID)
	assert.ErrorContains(t, errs[0], "record 2")
}
