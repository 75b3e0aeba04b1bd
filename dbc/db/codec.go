package db

import (
	"fmt"
	"math"
)

// The codec is a pure function of the signal descriptor and the frame
// buffer: no state is kept between calls, so concurrent calls need no
// synchronization beyond the caller's own buffer ownership.
//
// Both directions and both byte orders run over the same precomputed bit
// positions (walkBits, fixed at resolution time), so the error-prone
// addressing logic exists exactly once.

// walkBits returns the absolute payload bit positions covered by a field,
// most significant first. A position is byte*8 + bit with bit 0 the least
// significant bit of its byte.
//
// Intel fields occupy start..start+length-1 with ascending significance.
// Motorola fields start at the bit named by start and proceed in decreasing
// network bit number: down within the byte, then bit 7 of the next byte.
func walkBits(start, length uint8, order ByteOrder) []int {
	bits := make([]int, 0, length)
	switch order {
	case LittleEndian:
		for i := int(length) - 1; i >= 0; i-- {
			bits = append(bits, int(start)+i)
		}
	case BigEndian:
		byteIdx, bitIdx := int(start)/8, int(start)%8
		for i := 0; i < int(length); i++ {
			bits = append(bits, byteIdx*8+bitIdx)
			if bitIdx == 0 {
				byteIdx++
				bitIdx = 7
			} else {
				bitIdx--
			}
		}
	}
	return bits
}

// Decode extracts the signal's physical value from a frame payload.
// Declared min/max are not enforced; callers wanting validation check
// explicitly.
func (s *Signal) Decode(data []byte) (float64, error) {
	u, err := s.unmarshal(data)
	if err != nil {
		return 0, err
	}
	if s.signed {
		return float64(signExtend(u, s.length))*s.factor + s.offset, nil
	}
	return float64(u)*s.factor + s.offset, nil
}

// DecodeRaw extracts the unscaled field value, sign-extended when the
// signal is signed.
func (s *Signal) DecodeRaw(data []byte) (int64, error) {
	u, err := s.unmarshal(data)
	if err != nil {
		return 0, err
	}
	if s.signed {
		return signExtend(u, s.length), nil
	}
	return int64(u), nil
}

// Encode scales, rounds and injects a physical value into the frame
// payload in place. Bits outside the signal's range are left untouched.
// A value whose raw integer does not fit the field's width and signedness
// is rejected, never truncated.
func (s *Signal) Encode(data []byte, physical float64) error {
	rawF := math.Round((physical - s.offset) / s.factor)
	if rawF < math.MinInt64 || rawF > math.MaxInt64 || math.IsNaN(rawF) {
		return &CodecError{Signal: s.name, Reason: fmt.Sprintf("physical value %v is out of range", physical)}
	}
	return s.EncodeRaw(data, int64(rawF))
}

// EncodeRaw injects an unscaled field value into the frame payload.
func (s *Signal) EncodeRaw(data []byte, raw int64) error {
	if err := s.checkBuffer(data); err != nil {
		return err
	}
	if !s.fits(raw) {
		kind := "unsigned"
		if s.signed {
			kind = "signed"
		}
		return &CodecError{Signal: s.name, Reason: fmt.Sprintf("raw value %d does not fit a %d-bit %s field", raw, s.length, kind)}
	}

	u := uint64(raw)
	if s.length < 64 {
		u &= 1<<s.length - 1
	}
	for i, pos := range s.fieldBits {
		bit := byte(u>>(int(s.length)-1-i)) & 1
		mask := byte(1) << (pos % 8)
		if bit != 0 {
			data[pos/8] |= mask
		} else {
			data[pos/8] &^= mask
		}
	}
	return nil
}

func (s *Signal) unmarshal(data []byte) (uint64, error) {
	if err := s.checkBuffer(data); err != nil {
		return 0, err
	}
	var u uint64
	for _, pos := range s.fieldBits {
		u = u<<1 | uint64(data[pos/8]>>(pos%8))&1
	}
	return u, nil
}

func (s *Signal) checkBuffer(data []byte) error {
	if len(data) != int(s.message.length) {
		return &CodecError{
			Signal: s.name,
			Reason: fmt.Sprintf("buffer is %d bytes, message %s carries %d", len(data), s.message.name, s.message.length),
		}
	}
	return nil
}

func (s *Signal) fits(raw int64) bool {
	if s.length == 64 {
		return s.signed || raw >= 0
	}
	if s.signed {
		lo := -(int64(1) << (s.length - 1))
		hi := int64(1)<<(s.length-1) - 1
		return raw >= lo && raw <= hi
	}
	return raw >= 0 && raw <= int64(1)<<s.length-1
}

// signExtend interprets the low length bits of u as two's complement.
func signExtend(u uint64, length uint8) int64 {
	if length < 64 && u&(1<<(length-1)) != 0 {
		return int64(u | ^uint64(0)<<length)
	}
	return int64(u)
}
