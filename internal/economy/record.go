package economy

import (
	"encoding/json"
	"fmt"
)

// KeyPrefix - префикс ключа записи игрока в хранилище
const KeyPrefix = "um_player_"

// Record - сохраняемая форма состояния игрока
type Record struct {
	Money      float64         `json:"money"`
	PickLevel  int             `json:"pickLevel"`
	Resources  InventoryRecord `json:"resources"`
	TotalMined int             `json:"totalMined,omitempty"`
}

// RecordKey возвращает ключ хранилища для игрока
func RecordKey(playerID string) string {
	return KeyPrefix + playerID
}

// MarshalRecord сериализует запись в JSON
func MarshalRecord(rec Record) ([]byte, error) {
	if rec.Resources == nil {
		rec.Resources = InventoryRecord{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal player record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord разбирает JSON-запись
func UnmarshalRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal player record: %w", err)
	}
	return rec, nil
}
