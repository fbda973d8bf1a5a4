package mapper

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// toJSON marshals jsonb columns. The values stored here are plain structs
// that always marshal, so an error leaves the column empty.
func toJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func fromJSON(raw datatypes.JSON, v interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
