package genome

import "encoding/binary"

// GeneBytes is the packed width of one connection gene.
const GeneBytes = 4

// Packed word layout, most significant bits first:
//
//	bits 31..24  source neuron id
//	bits 23..16  target neuron id
//	bits 15..4   weight, 12-bit two's complement
//	bits  3..1   activation selector
//	bit   0      enabled flag
const (
	weightBits = 12
	weightMax  = 1<<(weightBits-1) - 1 // 2047
	weightMin  = -(1 << (weightBits - 1))

	// weightScale maps the integer weight onto roughly [-2, 2].
	weightScale = 1024.0
)

// ConnectionGene is the unpacked form of one neural wiring word.
type ConnectionGene struct {
	Source     uint8
	Target     uint8
	Weight     int16 // 12-bit signed, [-2048, 2047]
	Activation uint8 // 3-bit selector
	Enabled    bool
}

// WeightValue converts the integer weight to its real synapse strength.
func (cg ConnectionGene) WeightValue() float64 {
	return float64(cg.Weight) / weightScale
}

// Pack encodes the gene into a 4-byte word. Weight and activation are
// truncated to their field widths so a packed word is always structurally
// valid regardless of input.
func (cg ConnectionGene) Pack() [GeneBytes]byte {
	w := cg.Weight
	if w > weightMax {
		w = weightMax
	}
	if w < weightMin {
		w = weightMin
	}

	word := uint32(cg.Source)<<24 |
		uint32(cg.Target)<<16 |
		uint32(uint16(w)&0xFFF)<<4 |
		uint32(cg.Activation&0x7)<<1
	if cg.Enabled {
		word |= 1
	}

	var out [GeneBytes]byte
	binary.BigEndian.PutUint32(out[:], word)
	return out
}

// UnpackGene decodes a 4-byte word. Panics when given a short slice; callers
// always hand whole words from the genome tail.
func UnpackGene(b []byte) ConnectionGene {
	if len(b) < GeneBytes {
		panic("genome: connection gene word shorter than 4 bytes")
	}
	word := binary.BigEndian.Uint32(b[:GeneBytes])

	raw := uint16(word>>4) & 0xFFF
	// Sign-extend the 12-bit field.
	w := int16(raw)
	if raw&0x800 != 0 {
		w = int16(raw) - (1 << weightBits)
	}

	return ConnectionGene{
		Source:     uint8(word >> 24),
		Target:     uint8(word >> 16),
		Weight:     w,
		Activation: uint8(word>>1) & 0x7,
		Enabled:    word&1 == 1,
	}
}

// writeGene packs a gene in place into the genome tail at gene index i.
func writeGene(data []byte, i int, cg ConnectionGene) {
	off := TraitBytes + i*GeneBytes
	word := cg.Pack()
	copy(data[off:off+GeneBytes], word[:])
}
