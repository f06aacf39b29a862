package dhformat

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/dh2anvil/dh2anvil/internal/binutil"
)

const (
	biomeBlockSeparator = "_DH-BSW_"
	blockStateSeparator = "_STATE_"
	airBlockName        = "AIR"
)

// ParseMapping decodes a section's mapping-dictionary blob into its ordered
// list of entries. Entry N's index is the id a DataPoint's ID field refers
// to.
func ParseMapping(blob []byte) ([]MappingEntry, error) {
	r := binutil.NewReader(bytes.NewReader(blob))

	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	// Section mapping tables commonly repeat the same biome/block/state
	// string across many entries (adjacent columns sharing a block often
	// share the exact same dictionary text). A small hash-keyed cache lets
	// repeats skip re-parsing the property string, verified against the
	// original text on hit to rule out a hash collision.
	cache := make(map[uint64]cachedEntry)

	entries := make([]MappingEntry, 0, count)
	for i := 0; i < count; i++ {
		s, err := r.ShortString()
		if err != nil {
			return nil, fmt.Errorf("dhformat: read mapping entry %d: %w", i, err)
		}

		h := fnv1a.HashString64(s)
		if c, ok := cache[h]; ok && c.raw == s {
			entries = append(entries, c.entry)
			continue
		}

		entry, err := parseMappingString(s)
		if err != nil {
			return nil, fmt.Errorf("dhformat: mapping entry %d: %w", i, err)
		}
		cache[h] = cachedEntry{raw: s, entry: entry}
		entries = append(entries, entry)
	}
	return entries, nil
}

type cachedEntry struct {
	raw   string
	entry MappingEntry
}

func readCount(r *binutil.Reader) (int, error) {
	n, err := r.Int32()
	if err != nil {
		return 0, fmt.Errorf("dhformat: read mapping count: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("dhformat: mapping count must be positive, got %d", n)
	}
	return int(n), nil
}

// parseMappingString implements the biome/block/state-string grammar:
//
//	<biome>_DH-BSW_<tail>
//	tail := AIR[_STATE_]
//	      | <block>_STATE_{k:v}{k:v}...
//	      | <block>            (no _STATE_: bare block name, no properties)
func parseMappingString(s string) (MappingEntry, error) {
	biome, tail, ok := strings.Cut(s, biomeBlockSeparator)
	if !ok {
		return MappingEntry{}, &ErrMalformedMapping{Input: s, Reason: "missing " + biomeBlockSeparator}
	}

	block, states, hasState := strings.Cut(tail, blockStateSeparator)
	if !hasState {
		// Bare block name, no state payload at all.
		if block == airBlockName {
			return MappingEntry{Biome: biome, Properties: map[string]string{}}, nil
		}
		return MappingEntry{Biome: biome, Block: block, Properties: map[string]string{}}, nil
	}

	if block == airBlockName {
		return MappingEntry{Biome: biome, Properties: map[string]string{}}, nil
	}
	if states == "" {
		return MappingEntry{Biome: biome, Block: block, Properties: map[string]string{}}, nil
	}

	props, err := parseStateProperties(states)
	if err != nil {
		return MappingEntry{}, &ErrMalformedMapping{Input: s, Reason: err.Error()}
	}
	return MappingEntry{Biome: biome, Block: block, Properties: props}, nil
}

// parseStateProperties parses a "{k:v}{k:v}..." string, stripping exactly
// one leading and one trailing character before splitting on "}{". A payload
// shorter than two characters, or a fragment with no ":", is reported as an
// error rather than indexed into blindly; the two stripped characters are
// not checked to be braces.
func parseStateProperties(states string) (map[string]string, error) {
	if len(states) < 2 {
		return nil, fmt.Errorf("state payload %q too short to strip wrapper", states)
	}
	inner := states[1 : len(states)-1]
	if inner == "" {
		return map[string]string{}, nil
	}

	fragments := strings.Split(inner, "}{")
	props := make(map[string]string, len(fragments))
	for _, frag := range fragments {
		k, v, ok := strings.Cut(frag, ":")
		if !ok {
			return nil, fmt.Errorf("state fragment %q missing ':'", frag)
		}
		props[k] = v
	}
	return props, nil
}
