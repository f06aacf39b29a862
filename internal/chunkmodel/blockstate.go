package chunkmodel

import (
	"sort"
	"strings"
)

// BlockState is a block name plus its state properties, canonicalized so
// that two logically equal states collapse to the same palette slot
// regardless of the order their properties were supplied in.
type BlockState struct {
	Name string
	// props is "k=v,k=v,..." with keys sorted, so BlockState is a
	// comparable struct usable directly as a PalettedStore key.
	props string
}

// Air is the substitute block used whenever a compacted palette would
// otherwise be empty.
var Air = NewBlockState("minecraft:air", nil)

// Plains is the substitute biome used whenever a compacted biome palette
// would otherwise be empty.
const Plains = "minecraft:plains"

// NewBlockState canonicalizes name and properties into a BlockState.
func NewBlockState(name string, properties map[string]string) BlockState {
	if len(properties) == 0 {
		return BlockState{Name: name}
	}
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(properties[k])
	}
	return BlockState{Name: name, props: b.String()}
}

// Properties reconstructs the property map from its canonical form.
func (b BlockState) Properties() map[string]string {
	if b.props == "" {
		return nil
	}
	pairs := strings.Split(b.props, ",")
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, _ := strings.Cut(p, "=")
		out[k] = v
	}
	return out
}
