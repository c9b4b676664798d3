package json

import (
	"fmt"
	"time"

	"github.com/fwojciec/analyst"
)

// messageDTO is the JSON representation of a Message.
type messageDTO struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func marshalMessage(msg analyst.Message) (messageDTO, error) {
	if err := msg.Validate(); err != nil {
		return messageDTO{}, err
	}
	return messageDTO{
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Metadata:  msg.Metadata,
	}, nil
}

func unmarshalMessage(dto messageDTO) (analyst.Message, error) {
	msg := analyst.Message{
		Role:      analyst.Role(dto.Role),
		Content:   dto.Content,
		Timestamp: dto.Timestamp,
		Metadata:  dto.Metadata,
	}
	if err := msg.Validate(); err != nil {
		return analyst.Message{}, fmt.Errorf("invalid %q message: %w", dto.Role, err)
	}
	return msg, nil
}
