package kinesis

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/pos-backend/internal/event"
)

// ConvertFromKinesisRecord decodes one Kinesis record into an event
// envelope. Records carry the same JSON wire format as the Kafka
// channels, so a stream mirror needs no translation beyond this.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*event.Envelope, error) {
	var env event.Envelope
	if err := json.Unmarshal(record.Kinesis.Data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if env.ID == "" || env.Kind == "" || env.Type == "" {
		return nil, fmt.Errorf("missing required fields: id=%s, kind=%s, type=%s",
			env.ID, env.Kind, env.Type)
	}

	return &env, nil
}

// BatchConvertFromKinesisEvent converts all records from a Kinesis event.
// Returns successfully converted envelopes and any errors encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*event.Envelope, []error) {
	var envelopes []*event.Envelope
	var errs []error

	for _, record := range kinesisEvent.Records {
		env, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		envelopes = append(envelopes, env)
	}

	return envelopes, errs
}
