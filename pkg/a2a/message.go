package a2a

import (
	"encoding/json"
	"strings"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

/*
Message represents all non‑artifact communication between client & agent.
*/
type Message struct {
	Role     string   `json:"role"`
	Parts    []Part   `json:"parts"`
	Metadata Metadata `json:"metadata"`
}

func NewTextMessage(role string, text string) *Message {
	return &Message{
		Role:     role,
		Parts:    []Part{NewTextPart(text)},
		Metadata: Metadata{},
	}
}

func (msg Message) MarshalJSON() ([]byte, error) {
	type plain Message

	out := plain(msg)
	out.Metadata = msg.Metadata.orEmpty()

	return json.Marshal(out)
}

// Clone returns a copy that shares no slices or maps with msg.
func (msg Message) Clone() Message {
	out := Message{
		Role:     msg.Role,
		Metadata: msg.Metadata.Clone(),
	}

	if msg.Parts != nil {
		out.Parts = make([]Part, len(msg.Parts))

		for i, part := range msg.Parts {
			out.Parts[i] = part.Clone()
		}
	}

	return out
}

func (msg *Message) String() string {
	var sb strings.Builder

	for _, part := range msg.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String()
}
