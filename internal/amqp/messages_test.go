package amqp

import (
	"testing"
	"time"
)

func TestNewExpenseExportMessage(t *testing.T) {
	msg := NewExpenseExportMessage("9f0c2d8e", 1)

	if msg.ID != "9f0c2d8e" {
		t.Errorf("NewExpenseExportMessage() ID = %v, want 9f0c2d8e", msg.ID)
	}
	if msg.Version != 1 {
		t.Errorf("NewExpenseExportMessage() Version = %v, want 1", msg.Version)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewExpenseExportMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewExpenseExportMessage() Timestamp should be recent")
	}
}

func TestExpenseExportMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ExpenseExportMessage{
		ID:        "expense-1",
		Version:   2,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseExportMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseExportMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, msg.ID)
	}
	if parsed.Version != msg.Version {
		t.Errorf("Parsed Version = %v, want %v", parsed.Version, msg.Version)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseExportMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": 42, "version": "not_a_number"}`)

	if _, err := ExpenseExportMessageFromJSON(invalidJSON); err == nil {
		t.Error("ExpenseExportMessageFromJSON() should fail with invalid JSON")
	}
}
