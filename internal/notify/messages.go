package notify

import (
	"encoding/json"
	"time"
)

// Message is the wire shape of one notification on the broker. Consumers
// (the mobile push relay) only need title and body; the timestamp is for
// ordering and debugging.
type Message struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(title, body string) *Message {
	return &Message{
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
