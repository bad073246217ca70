package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/events"
)

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	if err := p.Publish(context.Background(), events.SubjectCounterDrift, events.CounterDrift{}); err != nil {
		t.Errorf("Nop.Publish: %v", err)
	}
}

func TestCounterDrift_JSON(t *testing.T) {
	ev := events.CounterDrift{
		Op:         "delete",
		UserID:     "u1",
		Field:      "properties_posted",
		Delta:      -1,
		PropertyID: "p1",
		Error:      "connection refused",
		At:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["user_id"] != "u1" || m["delta"] != -1.0 || m["field"] != "properties_posted" {
		t.Errorf("unexpected wire form: %s", b)
	}
}
