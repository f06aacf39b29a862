package chunkmodel

// blockMinBits is the minimum bits-per-entry width the target format
// reserves for block-state palettes even when the palette itself is small.
const blockMinBits = 4

// biomeMinBits is the minimum width for biome palettes: none, so a
// single-entry palette packs at zero bits (and omits its data array).
const biomeMinBits = 0

// SerializedSection is the palette + packed-long-array shape the Anvil NBT
// writer emits for one section's block states and biomes.
type SerializedSection struct {
	Y int8

	BlockPalette []BlockState
	BlockStates  []int64 // nil when len(BlockPalette) <= 1

	BiomePalette []string
	BiomeStates  []int64 // nil when len(BiomePalette) <= 1
}

// Serialize compacts a section's block and biome stores into their
// on-disk palette/packed-array form.
func Serialize(s *ChunkSection) SerializedSection {
	blocks := Compact(s.Blocks.indices, s.Blocks.palette, blockMinBits, Air)

	biomeIndices, biomePalette := sampleBiomes(s.Biomes)
	biomes := Compact(biomeIndices, biomePalette, biomeMinBits, Plains)

	return SerializedSection{
		Y:            s.Y,
		BlockPalette: blocks.Palette,
		BlockStates:  blocks.Data,
		BiomePalette: biomes.Palette,
		BiomeStates:  biomes.Data,
	}
}

// Deserialize expands a serialized section back into an in-memory
// ChunkSection: blocks at full 16x16x16 resolution, biomes broadcast from
// the 4x4x4 samples back over their source subcubes.
func Deserialize(ss SerializedSection) *ChunkSection {
	sec := newChunkSection(ss.Y)

	blockIdx := Decompact(ss.BlockStates, len(ss.BlockPalette), blockMinBits, 4096)
	palette := ss.BlockPalette
	if len(palette) == 0 {
		palette = []BlockState{Air}
	}
	for i, pi := range blockIdx {
		if pi >= len(palette) {
			pi = 0
		}
		sec.Blocks.Set(i, palette[pi])
	}

	biomePalette := ss.BiomePalette
	if len(biomePalette) == 0 {
		biomePalette = []string{Plains}
	}
	biomeIdx := Decompact(ss.BiomeStates, len(biomePalette), biomeMinBits, 64)
	broadcastBiomes(sec.Biomes, biomeIdx, biomePalette)

	return sec
}

// subcubeVoxels returns the 64 16x16x16-store slot indices making up biome
// slot i's 4x4x4 subcube, in ascending (y, z, x) order — the minimal corner
// first, the maximal corner last.
func subcubeVoxels(i int) [64]int {
	bx := i & 3
	bz := (i >> 2) & 3
	by := (i >> 4) & 3

	var out [64]int
	n := 0
	for dy := 0; dy < 4; dy++ {
		for dz := 0; dz < 4; dz++ {
			for dx := 0; dx < 4; dx++ {
				x := bx*4 + dx
				y := by*4 + dy
				z := bz*4 + dz
				out[n] = (y << 8) | (z << 4) | x
				n++
			}
		}
	}
	return out
}

// sampleBiomes reduces a 16x16x16 biome store to the 64 4x4x4 samples the
// target format stores, reproducing the source implementation's "first
// voxel of the subcube when the slot index is even, last when odd" quirk
// rather than a centroid sample (see the design notes on this choice).
func sampleBiomes(store *PalettedStore[string]) ([]uint16, []string) {
	indices := make([]uint16, 64)
	for i := 0; i < 64; i++ {
		voxels := subcubeVoxels(i)
		var voxel int
		if i%2 == 0 {
			voxel = voxels[0]
		} else {
			voxel = voxels[len(voxels)-1]
		}
		indices[i] = store.indices[voxel]
	}
	return indices, store.palette
}

// broadcastBiomes is sampleBiomes' inverse: each of the 64 samples is
// written over every voxel of its source subcube.
func broadcastBiomes(store *PalettedStore[string], biomeIdx []int, palette []string) {
	for i, pi := range biomeIdx {
		if pi >= len(palette) {
			pi = 0
		}
		value := palette[pi]
		for _, voxel := range subcubeVoxels(i) {
			store.Set(voxel, value)
		}
	}
}
