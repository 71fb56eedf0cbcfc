package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// decodeJSON unmarshals a JSON column, treating an empty column or JSON null
// as "leave dest untouched".
func decodeJSON(raw datatypes.JSON, dest interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
