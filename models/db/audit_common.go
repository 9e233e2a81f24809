package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONMap is a jsonb attribute bag used for routing facts and history
// metadata.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return errors.Errorf("unexpected jsonb source type %T", value)
	}
	return json.Unmarshal(raw, j)
}

// Merged returns a copy of j with extra keys applied on top.
func (j JSONMap) Merged(extra JSONMap) JSONMap {
	out := JSONMap{}
	for k, v := range j {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
