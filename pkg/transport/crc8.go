package transport

// crc8Poly is the CRC-8 generator polynomial (x^8 + x^2 + x + 1).
const crc8Poly = 0x07

// crc8Table is the precomputed lookup table for crc8Poly.
var crc8Table [256]byte

func init() {
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crc8Poly
			} else {
				crc <<= 1
			}
		}
		crc8Table[i] = crc
	}
}

// Checksum computes the CRC-8 of data with initial value 0x00.
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}
