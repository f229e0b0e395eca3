package progress

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	// Test progress updates
	var receivedEvents []Event
	tracker.AddListener(func(event Event) {
		receivedEvents = append(receivedEvents, event)
	})

	// Send some progress updates
	tracker.UpdateProgress(StageResolving, 5, "Resolving sources...")
	tracker.UpdateProgress(StageDownloading, 30, "Downloading audio...")

	// Verify received events
	if len(receivedEvents) != 2 {
		t.Errorf("Expected 2 events, got %d", len(receivedEvents))
	}

	// Test error handling
	tracker.SetError(context.Canceled)

	// Verify error state
	state := tracker.GetCurrentState()
	if state.Stage != StageError {
		t.Errorf("Expected error stage, got %s", state.Stage)
	}
	if state.Error != context.Canceled.Error() {
		t.Errorf("Expected error %v, got %s", context.Canceled, state.Error)
	}
}

func TestClipProgress(t *testing.T) {
	tracker := NewTracker()

	// Test clip progress updates
	var receivedEvents []Event
	tracker.AddListener(func(event Event) {
		receivedEvents = append(receivedEvents, event)
	})

	// Send clip progress updates
	tracker.UpdateClipProgress(1, 0, 0, 12, "First Track")
	tracker.UpdateClipProgress(2, 1, 0, 12, "Second Track")

	// Verify received events
	if len(receivedEvents) != 2 {
		t.Errorf("Expected 2 events, got %d", len(receivedEvents))
	}

	// Verify clip details
	for i, event := range receivedEvents {
		if event.ClipDetails == nil {
			t.Errorf("Event %d: Expected clip details, got nil", i)
			continue
		}
		if event.ClipDetails.Downloaded != i+1 {
			t.Errorf("Event %d: Expected downloaded %d, got %d", i, i+1, event.ClipDetails.Downloaded)
		}
		if event.ClipDetails.Total != 12 {
			t.Errorf("Event %d: Expected total 12, got %d", i, event.ClipDetails.Total)
		}
	}
}

func TestGetCurrentStateWithoutError(t *testing.T) {
	tracker := NewTracker()
	tracker.UpdateProgress(StageMerging, 90, "Merging clips...")

	state := tracker.GetCurrentState()
	if state.Stage != StageMerging {
		t.Errorf("Expected merging stage, got %s", state.Stage)
	}
	if state.Error != "" {
		t.Errorf("Expected no error, got %s", state.Error)
	}
}

func TestEventJSON(t *testing.T) {
	// Test JSON marshaling/unmarshaling
	event := Event{
		Stage:     StageProcessing,
		Progress:  50.0,
		Message:   "Processing...",
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	var unmarshaled Event
	if err := json.Unmarshal(data, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}

	if unmarshaled.Stage != event.Stage {
		t.Errorf("Expected stage %s, got %s", event.Stage, unmarshaled.Stage)
	}
	if unmarshaled.Progress != event.Progress {
		t.Errorf("Expected progress %f, got %f", event.Progress, unmarshaled.Progress)
	}
	if unmarshaled.Message != event.Message {
		t.Errorf("Expected message %s, got %s", event.Message, unmarshaled.Message)
	}
}

func TestListenerManagement(t *testing.T) {
	tracker := NewTracker()

	// Add a listener
	var receivedEvents []Event
	listener := func(event Event) {
		receivedEvents = append(receivedEvents, event)
	}
	tracker.AddListener(listener)

	// Send an event
	tracker.UpdateProgress(StageProcessing, 50, "Test")

	// Verify event was received
	if len(receivedEvents) != 1 {
		t.Errorf("Expected 1 event, got %d", len(receivedEvents))
	}

	// Remove the listener
	tracker.RemoveListener(listener)

	// Send another event
	tracker.UpdateProgress(StageProcessing, 75, "Test 2")

	// Verify no new events were received
	if len(receivedEvents) != 1 {
		t.Errorf("Expected 1 event after removal, got %d", len(receivedEvents))
	}
}
