package geometry

import "github.com/chewxy/math32"

// Packed primitive layout: three 10-bit local vertex indices, low bits first.
const (
	primIndexBits = 10
	primIndexMask = 1<<primIndexBits - 1

	// MaxPrimIndex is the largest local index a packed primitive can address.
	MaxPrimIndex = primIndexMask
)

// DegenerateCone is the packed cone emitted when normals spread too far to
// bound: zero axis at the +128 bias midpoint and maximal spread.
const DegenerateCone uint32 = 128 | 128<<8 | 128<<16 | 255<<24

// PackPrim packs three local vertex indices into one word as
// [a:10][b:10][c:10], a in the low bits. The top two bits stay zero.
func PackPrim(a, b, c uint32) uint32 {
	return a&primIndexMask | (b&primIndexMask)<<primIndexBits | (c&primIndexMask)<<(2*primIndexBits)
}

// UnpackPrim is the inverse of PackPrim.
func UnpackPrim(packed uint32) (a, b, c uint32) {
	a = packed & primIndexMask
	b = (packed >> primIndexBits) & primIndexMask
	c = (packed >> (2 * primIndexBits)) & primIndexMask
	return a, b, c
}

// PackCone packs axis and spread bytes as [x, y, z, w], x in the low byte.
func PackCone(x, y, z, w uint8) uint32 {
	return uint32(x) | uint32(y)<<8 | uint32(z)<<16 | uint32(w)<<24
}

// quantizeSNorm8 maps v in [-1, 1] to a signed byte and returns it biased
// by +128 so that zero lands on 128.
func quantizeSNorm8(v float32) uint8 {
	v = math32.Max(-1, math32.Min(1, v))
	q := int32(math32.Round(v * 127))
	return uint8(q + 128)
}

// dequantizeSNorm8 is the inverse of quantizeSNorm8.
func dequantizeSNorm8(b uint8) float32 {
	return float32(int32(b)-128) / 127
}

// quantizeUNorm8 maps v in [0, 1] to a byte, rounding up so the stored
// value never falls below v.
func quantizeUNorm8(v float32) uint8 {
	v = math32.Max(0, math32.Min(1, v))
	return uint8(math32.Ceil(v * 255))
}
