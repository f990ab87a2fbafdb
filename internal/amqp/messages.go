package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseExportMessage asks the export worker to push one expense to the
// configured spreadsheet. It carries only the ID and a version counter;
// the worker fetches the current record from the database so stale
// deliveries never overwrite newer data.
type ExpenseExportMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseExportMessage(id string, version int64) *ExpenseExportMessage {
	return &ExpenseExportMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseExportMessageFromJSON(data []byte) (*ExpenseExportMessage, error) {
	var msg ExpenseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
