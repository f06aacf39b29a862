package chunkmodel

// DefaultTemplate returns the root NBT compound used to seed every output
// chunk's passthrough fields before xPos/zPos/Status/sections are
// overwritten. It is built as a Go literal rather than parsed from an
// embedded binary blob (see the design notes on this choice); callers that
// have an actual template chunk on disk should use ParseTemplate instead
// and fall back to this one when none is configured.
func DefaultTemplate() map[string]any {
	return map[string]any{
		"DataVersion": int32(3700),
		"xPos":        int32(0),
		"zPos":        int32(0),
		"yPos":        int32(-4),
		"Status":      "minecraft:full",
		"LastUpdate":  int64(0),
		"InhabitedTime": int64(0),
		"isLightOn":   uint8(0),
		"sections":    []any{},
		"block_entities": []any{},
		"HeightMaps": map[string]any{},
		"structures": map[string]any{
			"References": map[string]any{},
			"starts":     map[string]any{},
		},
		"PostProcessing": []any{},
	}
}
