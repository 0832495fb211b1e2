package a2a

import "encoding/json"

/*
Artifact is a named, indexed output unit of a task. Append and LastChunk
describe incremental production and stay unset for single-shot results.
*/
type Artifact struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Parts       []Part   `json:"parts"`
	Metadata    Metadata `json:"metadata"`
	Index       int      `json:"index"`
	Append      *bool    `json:"append,omitempty"`
	LastChunk   *bool    `json:"lastChunk,omitempty"`
}

func NewTextArtifact(name, description string, index int, text string) Artifact {
	return Artifact{
		Name:        &name,
		Description: &description,
		Parts:       []Part{NewTextPart(text)},
		Metadata:    Metadata{},
		Index:       index,
	}
}

func (artifact Artifact) MarshalJSON() ([]byte, error) {
	type plain Artifact

	out := plain(artifact)
	out.Metadata = artifact.Metadata.orEmpty()

	return json.Marshal(out)
}

// Text concatenates the text parts of the artifact.
func (artifact Artifact) Text() string {
	var out string

	for _, part := range artifact.Parts {
		if part.Type == PartTypeText {
			out += part.Text
		}
	}

	return out
}

func (artifact Artifact) Clone() Artifact {
	out := artifact
	out.Metadata = artifact.Metadata.Clone()

	if artifact.Name != nil {
		name := *artifact.Name
		out.Name = &name
	}

	if artifact.Description != nil {
		description := *artifact.Description
		out.Description = &description
	}

	if artifact.Append != nil {
		appendFlag := *artifact.Append
		out.Append = &appendFlag
	}

	if artifact.LastChunk != nil {
		lastChunk := *artifact.LastChunk
		out.LastChunk = &lastChunk
	}

	if artifact.Parts != nil {
		out.Parts = make([]Part, len(artifact.Parts))

		for i, part := range artifact.Parts {
			out.Parts[i] = part.Clone()
		}
	}

	return out
}
