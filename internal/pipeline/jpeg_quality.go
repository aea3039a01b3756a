package pipeline

import (
	"encoding/binary"
	"math"
)

// Luminance quantization table from ITU T.81 Annex K, in zigzag order as it
// appears in a DQT segment.
var standardLuminance = [64]int{
	16, 11, 12, 14, 12, 10, 16, 14,
	13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37,
	29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68,
	87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113,
	121, 112, 100, 120, 92, 101, 103, 99,
}

// EstimateJPEGQuality reports the IJG quality setting (1-100) whose scaled
// luminance table is closest to the one stored in data. ok is false when data
// is not a JPEG or carries no luminance table.
func EstimateJPEGQuality(data []byte) (quality int, ok bool) {
	table, ok := luminanceTable(data)
	if !ok {
		return 0, false
	}

	bestErr := math.MaxInt
	for q := 1; q <= 100; q++ {
		diff := 0
		for i, base := range standardLuminance {
			d := scaleQuant(base, q) - table[i]
			if d < 0 {
				d = -d
			}
			diff += d
		}
		if diff < bestErr {
			quality, bestErr = q, diff
		}
	}
	return quality, true
}

func scaleQuant(base, quality int) int {
	scale := 200 - 2*quality
	if quality < 50 {
		scale = 5000 / quality
	}
	return clamp((base*scale+50)/100, 1, 255)
}

func luminanceTable(data []byte) ([]int, bool) {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return nil, false
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xff {
			return nil, false
		}
		marker := data[i+1]
		i += 2

		switch {
		case marker == 0xff:
			// fill byte
			i--
			continue
		case marker == 0x01 || (marker >= 0xd0 && marker <= 0xd8):
			continue
		case marker == 0xd9 || marker == 0xda: // EOI, SOS
			return nil, false
		}

		length := int(binary.BigEndian.Uint16(data[i : i+2]))
		if length < 2 || i+length > len(data) {
			return nil, false
		}
		if marker == 0xdb {
			if table, ok := parseDQT(data[i+2 : i+length]); ok {
				return table, true
			}
		}
		i += length
	}
	return nil, false
}

func parseDQT(seg []byte) ([]int, bool) {
	for len(seg) > 0 {
		precision := seg[0] >> 4
		id := seg[0] & 0x0f
		seg = seg[1:]

		size := 64
		if precision == 1 {
			size = 128
		}
		if len(seg) < size {
			return nil, false
		}

		if id == 0 {
			table := make([]int, 64)
			for k := range table {
				if precision == 1 {
					table[k] = int(binary.BigEndian.Uint16(seg[2*k:]))
				} else {
					table[k] = int(seg[k])
				}
			}
			return table, true
		}
		seg = seg[size:]
	}
	return nil, false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
