package entity

import "encoding/json"

// JSON helpers for the columns stored as serialized payloads. Decoders are
// lenient: malformed stored data yields an empty result instead of failing
// a read path.

// EncodeContestedItems serializes contested items for storage.
func EncodeContestedItems(items []ContestedItem) string {
	if len(items) == 0 {
		return ""
	}
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeContestedItems deserializes stored contested items.
func DecodeContestedItems(raw string) []ContestedItem {
	if raw == "" {
		return nil
	}
	var items []ContestedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

// EncodeResolutionActions serializes resolution actions for storage.
func EncodeResolutionActions(actions []ResolutionAction) string {
	if len(actions) == 0 {
		return ""
	}
	b, err := json.Marshal(actions)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeResolutionActions deserializes stored resolution actions.
func DecodeResolutionActions(raw string) []ResolutionAction {
	if raw == "" {
		return nil
	}
	var actions []ResolutionAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil
	}
	return actions
}

// EncodeCategoryCounts serializes per-category appeal counts.
func EncodeCategoryCounts(counts map[AppealCategory]int) string {
	if len(counts) == 0 {
		return ""
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeCategoryCounts deserializes stored per-category appeal counts.
func DecodeCategoryCounts(raw string) map[AppealCategory]int {
	if raw == "" {
		return nil
	}
	var counts map[AppealCategory]int
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil
	}
	return counts
}
