package dhformat

import (
	"bytes"
	"fmt"

	"github.com/dh2anvil/dh2anvil/internal/binutil"
)

// SectionColumns is the number of columns in one 64x64 DH section.
const SectionColumns = 64 * 64

// ParseColumns decodes a section's column blob into 4096 ordered runs of
// DataPoints, indexed row-major as x*64+z.
func ParseColumns(blob []byte) ([4096][]DataPoint, error) {
	var out [4096][]DataPoint
	r := binutil.NewReader(bytes.NewReader(blob))

	for i := 0; i < SectionColumns; i++ {
		length, err := r.Int16()
		if err != nil {
			return out, fmt.Errorf("dhformat: read column %d length: %w", i, err)
		}
		if length < 0 {
			return out, fmt.Errorf("dhformat: column %d has negative length %d", i, length)
		}

		runs := make([]DataPoint, length)
		for j := 0; j < int(length); j++ {
			w, err := r.Int64()
			if err != nil {
				return out, fmt.Errorf("dhformat: read column %d entry %d: %w", i, j, err)
			}
			runs[j] = UnpackDataPoint(w)
		}
		out[i] = runs
	}
	return out, nil
}
