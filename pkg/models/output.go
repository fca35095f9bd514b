package models

import (
	"encoding/json"
	"fmt"
)

// OutputRef is one produced artifact. On the wire it is either a bare URL
// string or an object carrying the URL plus media metadata; the two forms
// are value-equivalent and are normalized here so consumers never branch on
// representation.
type OutputRef struct {
	URL      string          `json:"url"`
	Metadata *OutputMetadata `json:"metadata,omitempty"`
}

// OutputMetadata describes a produced file when the transcoder reports it.
type OutputMetadata struct {
	FileSize   int64   `json:"file_size,omitempty"`
	Dimensions string  `json:"dimensions,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (o *OutputRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return fmt.Errorf("decoding output url: %w", err)
		}
		*o = OutputRef{URL: url}
		return nil
	}

	type outputRef OutputRef // drop methods to avoid recursion
	var obj outputRef
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding output object: %w", err)
	}
	*o = OutputRef(obj)
	return nil
}

// MarshalJSON emits the compact bare-string form when no metadata is
// attached, matching what the transcoder itself produces.
func (o OutputRef) MarshalJSON() ([]byte, error) {
	if o.Metadata == nil {
		return json.Marshal(o.URL)
	}
	type outputRef OutputRef
	return json.Marshal(outputRef(o))
}
