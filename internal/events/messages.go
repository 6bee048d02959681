package events

import (
	"encoding/json"
	"errors"
	"time"
)

// BillCreatedMessage announces a new bill. The worker loads the full
// record from the database by id.
type BillCreatedMessage struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBillCreatedMessage(id, email string) *BillCreatedMessage {
	return &BillCreatedMessage{
		ID:        id,
		Email:     email,
		Timestamp: time.Now(),
	}
}

func (m *BillCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillCreatedMessageFromJSON decodes a message; a message without id is malformed.
func BillCreatedMessageFromJSON(data []byte) (*BillCreatedMessage, error) {
	var msg BillCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("bill created message without id")
	}
	return &msg, nil
}
