package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// The hierarchy file nests continent -> country -> province -> resort. A
// resort entry carries coordinates and an elevation payload; anything else at
// the resort level is a structural grouping node and is skipped. Parsing
// distinguishes the two variants explicitly instead of duck-typing on field
// presence downstream.

// resortNode is the leaf payload of the hierarchy file.
type resortNode struct {
	Name      string      `json:"name"`
	Lat       *float64    `json:"lat"`
	Lon       *float64    `json:"lon"`
	Elevation *Elevations `json:"elevation"`
}

func (n resortNode) isResort() bool {
	return n.Elevation != nil
}

// LoadHierarchy reads and flattens the hierarchy file at path.
func LoadHierarchy(path string) ([]Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hierarchy file: %w", err)
	}
	defer f.Close()

	return Flatten(f)
}

// Flatten parses the nested hierarchy into the ordered Location set.
// Document order is preserved; downstream batch planning relies on the set
// being stable across runs.
func Flatten(r io.Reader) ([]Location, error) {
	dec := json.NewDecoder(r)

	var locations []Location
	err := eachMember(dec, func(continent string, countries json.RawMessage) error {
		return eachRawMember(countries, func(country string, provinces json.RawMessage) error {
			return eachRawMember(provinces, func(province string, resorts json.RawMessage) error {
				return eachRawMember(resorts, func(id string, payload json.RawMessage) error {
					var node resortNode
					if err := json.Unmarshal(payload, &node); err != nil {
						return fmt.Errorf("resort %q: %w", id, err)
					}
					if !node.isResort() {
						// Grouping node, nothing to query.
						return nil
					}

					name := node.Name
					if name == "" {
						name = id
					}
					locations = append(locations, Location{
						ID:         id,
						Name:       name,
						Continent:  continent,
						Country:    country,
						Province:   province,
						Lat:        node.Lat,
						Lon:        node.Lon,
						Elevations: *node.Elevation,
					})
					return nil
				})
			})
		})
	})
	if err != nil {
		return nil, err
	}

	return locations, nil
}

// eachMember walks one JSON object with the decoder, yielding members in
// document order. encoding/json maps would lose ordering, so the object is
// consumed token by token with each value captured raw.
func eachMember(dec *json.Decoder, fn func(key string, value json.RawMessage) error) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read hierarchy: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("hierarchy level must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read hierarchy key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("hierarchy key must be a string, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("read hierarchy value for %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read hierarchy: %w", err)
	}
	return nil
}

func eachRawMember(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	return eachMember(dec, fn)
}
