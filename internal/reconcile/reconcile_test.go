package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type record struct {
	Value     string
	UpdatedAt time.Time
}

func (r record) LastUpdated() time.Time { return r.UpdatedAt }

func TestLastWriteWins_FirstWrite(t *testing.T) {
	incoming := record{Value: "new", UpdatedAt: time.Now()}

	d := LastWriteWins[record](nil, incoming)

	assert.True(t, d.ApplyIncoming)
	assert.Equal(t, "new", d.Merged.Value)
}

func TestLastWriteWins_TimestampComparison(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		existingAt    time.Time
		incomingAt    time.Time
		applyIncoming bool
	}{
		{"incoming newer", base, base.Add(time.Second), true},
		{"incoming older", base, base.Add(-time.Second), false},
		{"tie keeps existing", base, base, false},
		{"incoming newer by a nanosecond", base, base.Add(time.Nanosecond), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := record{Value: "existing", UpdatedAt: tt.existingAt}
			incoming := record{Value: "incoming", UpdatedAt: tt.incomingAt}

			d := LastWriteWins(&existing, incoming)

			assert.Equal(t, tt.applyIncoming, d.ApplyIncoming)
			if tt.applyIncoming {
				assert.Equal(t, "incoming", d.Merged.Value)
			} else {
				assert.Equal(t, "existing", d.Merged.Value)
			}
		})
	}
}

func TestLastWriteWins_WholesaleOverwrite(t *testing.T) {
	// No per-field merge: the winning record replaces the loser entirely.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := record{Value: "existing", UpdatedAt: base}
	incoming := record{Value: "", UpdatedAt: base.Add(time.Minute)}

	d := LastWriteWins(&existing, incoming)

	assert.True(t, d.ApplyIncoming)
	assert.Equal(t, "", d.Merged.Value)
	assert.Equal(t, incoming.UpdatedAt, d.Merged.LastUpdated())
}
