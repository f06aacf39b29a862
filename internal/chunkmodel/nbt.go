package chunkmodel

import (
	"bytes"
	"fmt"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// sectionNBT is the on-disk NBT shape of one section, matching the target
// format's "sections" list entries.
type sectionNBT struct {
	Y             int8           `nbt:"Y"`
	BlockStates   blockStatesNBT `nbt:"block_states"`
	Biomes        biomesNBT      `nbt:"biomes"`
}

type blockStatesNBT struct {
	Palette []blockStateNBT `nbt:"palette"`
	Data    []int64         `nbt:"data,omitempty"`
}

type blockStateNBT struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties,omitempty"`
}

type biomesNBT struct {
	Palette []string `nbt:"palette"`
	Data    []int64  `nbt:"data,omitempty"`
}

// EncodeChunk renders c into its big-endian Java-edition NBT bytes,
// overwriting xPos/zPos/Status/sections on top of c.Other's passthrough
// fields (typically a CloneTemplate of the template chunk) and encoding
// the resulting compound.
func EncodeChunk(c *Chunk) ([]byte, error) {
	root := c.Other
	if root == nil {
		root = map[string]any{}
	}
	root["xPos"] = c.X
	root["zPos"] = c.Z
	root["Status"] = c.Status

	sections := make([]any, 0, SectionCount)
	for _, sec := range c.Sections {
		if sec == nil {
			continue
		}
		sections = append(sections, sectionToNBT(sec))
	}
	root["sections"] = sections

	var buf bytes.Buffer
	enc := nbt.NewEncoderWithEncoding(&buf, nbt.BigEndian)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("chunkmodel: encode chunk NBT: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseTemplate decodes a custom template chunk's raw NBT bytes (such as a
// file passed to the CLI's --template flag) into a root compound. It is
// parsed once at startup; Chunk.Other is cloned from it per output chunk.
func ParseTemplate(data []byte) (map[string]any, error) {
	var root map[string]any
	dec := nbt.NewDecoderWithEncoding(bytes.NewReader(data), nbt.BigEndian)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("chunkmodel: parse template chunk: %w", err)
	}
	return root, nil
}

func sectionToNBT(s *ChunkSection) sectionNBT {
	ss := Serialize(s)

	palette := make([]blockStateNBT, len(ss.BlockPalette))
	for i, bs := range ss.BlockPalette {
		palette[i] = blockStateNBT{Name: bs.Name, Properties: bs.Properties()}
	}

	return sectionNBT{
		Y: ss.Y,
		BlockStates: blockStatesNBT{
			Palette: palette,
			Data:    ss.BlockStates,
		},
		Biomes: biomesNBT{
			Palette: ss.BiomePalette,
			Data:    ss.BiomeStates,
		},
	}
}

// CloneTemplate deep-copies the map/slice/scalar tree a parsed template (or
// DefaultTemplate) produces, so each output chunk mutates its own copy
// rather than aliasing the shared template.
func CloneTemplate(v map[string]any) map[string]any {
	return cloneAny(v).(map[string]any)
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneAny(val)
		}
		return out
	default:
		return v
	}
}
