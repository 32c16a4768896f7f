package display

import "encoding/binary"

var defaultChecksumPattern = []byte{0x56, 0x72, 0x41, 0xB5}

// rollingSum adds the little-endian 32-bit words of p and compares the sum
// with the first word. The accumulator keeps carries beyond 32 bits, so a
// pattern whose words overflow never validates.
func rollingSum(p []byte) (int32, bool) {
	if len(p) == 0 || len(p)%4 != 0 {
		return 0, false
	}
	var sum uint64
	for i := 0; i < len(p); i += 4 {
		sum = uint64(binary.LittleEndian.Uint32(p[i:])) + sum&0xFFFFFFFF
	}
	if sum != uint64(binary.LittleEndian.Uint32(p)) {
		return 0, false
	}
	return int32(uint32(sum)), true
}

// SetChecksum stores v big-endian as the reference pattern and validates
// it. On a mismatch the previous pattern is kept and false is returned.
func (m *Model) SetChecksum(v int32) bool {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, uint32(v))
	return m.SetChecksumBytes(p)
}

// SetChecksumBytes replaces the reference pattern with p, a whole number of
// 32-bit words, if it validates
func (m *Model) SetChecksumBytes(p []byte) bool {
	sum, ok := rollingSum(p)
	if !ok {
		return false
	}
	m.mu.Lock()
	m.checksumPattern = append([]byte(nil), p...)
	m.checksum = sum
	m.mu.Unlock()
	return true
}

// Checksum returns the last validated rolling sum
func (m *Model) Checksum() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checksum
}
