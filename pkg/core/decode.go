package core

import (
	"encoding/json"
	"fmt"
)

// Stored payload fields have historically been written both as JSON
// structures and as JSON-encoded strings of those structures. The
// decoders below accept either form so shape branching stays at this
// boundary and never leaks into the generators.

// coerceObject unwraps a JSON-encoded string payload into the raw JSON
// it contains. Non-string payloads pass through unchanged.
func coerceObject(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, fmt.Errorf("unwrapping string payload: %w", err)
	}
	if inner == "" {
		return nil, nil
	}
	return json.RawMessage(inner), nil
}

// DecodeRadiusPoints decodes the radius_points field. A single point
// object is accepted as well as a list.
func DecodeRadiusPoints(raw json.RawMessage) ([]RadiusPoint, error) {
	data, err := coerceObject(raw)
	if err != nil || data == nil {
		return nil, err
	}
	var points []RadiusPoint
	if err := json.Unmarshal(data, &points); err == nil {
		return points, nil
	}
	var single RadiusPoint
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decoding radius points: %w", err)
	}
	return []RadiusPoint{single}, nil
}

// DecodeDriveTimePoints decodes the drive_time_points field. A single
// point object is accepted as well as a list.
func DecodeDriveTimePoints(raw json.RawMessage) ([]DriveTimePoint, error) {
	data, err := coerceObject(raw)
	if err != nil || data == nil {
		return nil, err
	}
	var points []DriveTimePoint
	if err := json.Unmarshal(data, &points); err == nil {
		return points, nil
	}
	var single DriveTimePoint
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decoding drive-time points: %w", err)
	}
	return []DriveTimePoint{single}, nil
}

// DecodeSiteLocation decodes the site_location_data field.
func DecodeSiteLocation(raw json.RawMessage) (*SiteLocation, error) {
	data, err := coerceObject(raw)
	if err != nil || data == nil {
		return nil, err
	}
	var site SiteLocation
	if err := json.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("decoding site location: %w", err)
	}
	return &site, nil
}
