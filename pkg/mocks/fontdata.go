package mocks

import "encoding/binary"

// FontCollection packs single TrueType or OpenType files into one collection
// (.ttc). Table offsets of each member are rebased onto the combined file.
func FontCollection(fonts ...[]byte) []byte {
	out := make([]byte, 12+4*len(fonts))
	copy(out, "ttcf")
	binary.BigEndian.PutUint32(out[4:], 0x00010000)
	binary.BigEndian.PutUint32(out[8:], uint32(len(fonts)))

	for i, data := range fonts {
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		base := uint32(len(out))
		binary.BigEndian.PutUint32(out[12+4*i:], base)

		member := append([]byte(nil), data...)
		numTables := int(binary.BigEndian.Uint16(member[4:]))
		for t := 0; t < numTables; t++ {
			rec := 12 + 16*t + 8
			binary.BigEndian.PutUint32(member[rec:], binary.BigEndian.Uint32(member[rec:])+base)
		}
		out = append(out, member...)
	}
	return out
}
