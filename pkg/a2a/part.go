package a2a

import (
	"encoding/base64"
	"encoding/json"
	"maps"
)

/*
Part is a discriminated union over Text, File and Data parts. Exactly one
of Text, File or Data is populated, selected by Type.
*/
type Part struct {
	Type PartType `json:"type"`

	Text string    `json:"text,omitempty"`
	File *FilePart `json:"file,omitempty"`
	Data Metadata  `json:"data,omitempty"`

	Metadata Metadata `json:"metadata,omitempty"`
}

// PartType is the discriminator for a Part union.
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
	PartTypeData PartType = "data"
)

type FilePart struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Data     string  `json:"bytes,omitempty"`
	URI      string  `json:"uri,omitempty"`
}

/*
Metadata is an open mapping of string keys to opaque values. Key order
carries no meaning.
*/
type Metadata map[string]any

// orEmpty maps a nil mapping to an empty one so it encodes as {}.
func (md Metadata) orEmpty() Metadata {
	if md == nil {
		return Metadata{}
	}

	return md
}

// Clone copies the top level of the mapping; values are shared.
func (md Metadata) Clone() Metadata {
	if md == nil {
		return nil
	}

	return maps.Clone(md)
}

func NewTextPart(text string) Part {
	return Part{
		Type:     PartTypeText,
		Text:     text,
		Metadata: Metadata{},
	}
}

func NewFilePart(name string, mimeType string, data []byte) Part {
	return Part{
		Type: PartTypeFile,
		File: &FilePart{
			Name:     &name,
			MimeType: &mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		},
		Metadata: Metadata{},
	}
}

func NewDataPart(data Metadata) Part {
	return Part{
		Type:     PartTypeData,
		Data:     data,
		Metadata: Metadata{},
	}
}

/*
MarshalJSON always writes metadata, and always writes text for text
parts, even when it is empty.
*/
func (part Part) MarshalJSON() ([]byte, error) {
	wire := struct {
		Type     PartType  `json:"type"`
		Text     *string   `json:"text,omitempty"`
		File     *FilePart `json:"file,omitempty"`
		Data     Metadata  `json:"data,omitempty"`
		Metadata Metadata  `json:"metadata"`
	}{
		Type:     part.Type,
		File:     part.File,
		Data:     part.Data,
		Metadata: part.Metadata.orEmpty(),
	}

	if part.Type == PartTypeText {
		text := part.Text
		wire.Text = &text
	}

	return json.Marshal(wire)
}

func (part Part) Clone() Part {
	out := part
	out.Data = part.Data.Clone()
	out.Metadata = part.Metadata.Clone()

	if part.File != nil {
		file := *part.File
		out.File = &file
	}

	return out
}
