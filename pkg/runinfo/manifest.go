package runinfo

import "encoding/json"

// ShapeEntry pairs a mapped name with its resolved shape. It marshals as
// a two-element JSON array ["name", [d0, d1, ...]] to match the
// published manifest schema.
type ShapeEntry struct {
	Name  string
	Shape []int
}

// MarshalJSON implements json.Marshaler.
func (e ShapeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Name, e.Shape})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ShapeEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage

	err := json.Unmarshal(data, &pair)
	if err != nil {
		return err
	}

	err = json.Unmarshal(pair[0], &e.Name)
	if err != nil {
		return err
	}

	return json.Unmarshal(pair[1], &e.Shape)
}

// MaskEntry pairs a mapped name with its resolved shape mask, marshaled
// the same way as ShapeEntry.
type MaskEntry struct {
	Name string
	Mask []bool
}

// MarshalJSON implements json.Marshaler.
func (e MaskEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Name, e.Mask})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *MaskEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage

	err := json.Unmarshal(data, &pair)
	if err != nil {
		return err
	}

	err = json.Unmarshal(pair[0], &e.Name)
	if err != nil {
		return err
	}

	return json.Unmarshal(pair[1], &e.Mask)
}

// Manifest is the JSON-serializable record written to run_info.json.
type Manifest struct {
	Functions  []string          `json:"functions"`
	Inputs     map[string]string `json:"inputs"`
	Shapes     []ShapeEntry      `json:"shapes"`
	ShapeMasks []MaskEntry       `json:"shape_masks"`
	Mapspecs   []string          `json:"mapspecs"`
	StorageID  string            `json:"storage_id"`
	RunFolder  string            `json:"run_folder"`
}
