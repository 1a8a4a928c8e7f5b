// Package bigint implements spec.md §4.2's fixed-width integers: 1..2^24-1
// bits, tagged signed/unsigned and secret/non-secret, with overflow-raising
// arithmetic plus explicitly truncating variants. Arithmetic on secret
// operands runs in constant time with respect to operand *values* (not
// widths): every code path below is a straight-line carry/borrow loop with
// no branch on limb contents, following the limb-operation idiom of
// gnark-crypto's constant-modulus field elements (see DESIGN.md) even
// though that library cannot itself represent arbitrary widths.
package bigint

import (
	"fmt"
	"math/bits"
)

// MaxWidth is the largest width this package represents, matching spec.md
// §4.2's 2^24-1 bit ceiling.
const MaxWidth = 1<<24 - 1

// Int is a fixed-width big integer value.
type Int struct {
	limbs  []uint64 // little-endian 64-bit limbs, unsigned two's-complement storage
	width  int      // bit width, 1..MaxWidth
	signed bool
	secret bool
}

// ErrOverflow is returned by checked arithmetic when the mathematical
// result does not fit in the operand width.
type ErrOverflow struct {
	Op    string
	Width int
}

func (e *ErrOverflow) Error() string {
	return fmt.Sprintf("overflow in %d-bit %s", e.Width, e.Op)
}

// ErrWidthMismatch is returned when two operands of differing configuration
// (width, signedness) are combined without an explicit cast.
type ErrWidthMismatch struct {
	A, B int
}

func (e *ErrWidthMismatch) Error() string {
	return fmt.Sprintf("width mismatch: %d bits vs %d bits", e.A, e.B)
}

func limbCount(width int) int { return (width + 63) / 64 }

// New constructs a zero-valued Int of the given width/signedness/secrecy.
// Unsigned values reserve one extra internal bit (spec.md §4.2) so that
// subtraction underflow can be detected before truncation to width.
func New(width int, signed, secret bool) (*Int, error) {
	if width < 1 || width > MaxWidth {
		return nil, fmt.Errorf("invalid bigint width %d: must be 1..%d", width, MaxWidth)
	}
	internal := width
	if !signed {
		internal = width + 1
	}
	return &Int{
		limbs:  make([]uint64, limbCount(internal)),
		width:  width,
		signed: signed,
		secret: secret,
	}, nil
}

// FromInt64 builds an Int from a native value, masked to width.
func FromInt64(width int, signed, secret bool, v int64) (*Int, error) {
	x, err := New(width, signed, secret)
	if err != nil {
		return nil, err
	}
	x.limbs[0] = uint64(v)
	x.mask()
	x.clearGuardBit()
	return x, nil
}

func (x *Int) Width() int   { return x.width }
func (x *Int) Signed() bool { return x.signed }
func (x *Int) Secret() bool { return x.secret }

// internalWidth is the storage width including the unsigned underflow bit.
func (x *Int) internalWidth() int {
	if x.signed {
		return x.width
	}
	return x.width + 1
}

// mask clears any bits above internalWidth in constant time (the mask
// value depends only on width, a compile-time-known quantity, never on
// operand contents).
func (x *Int) mask() {
	iw := x.internalWidth()
	full := iw / 64
	rem := iw % 64
	for i := range x.limbs {
		switch {
		case i < full:
			// fully used limb, no mask
		case i == full && rem > 0:
			x.limbs[i] &= (uint64(1) << rem) - 1
		default:
			x.limbs[i] = 0
		}
	}
}

// clearGuardBit drops the unsigned underflow guard bit, leaving the value
// reduced modulo 2^width. Signed values have no guard bit.
func (x *Int) clearGuardBit() {
	if x.signed {
		return
	}
	x.limbs[x.width/64] &^= uint64(1) << uint(x.width%64)
}

func sameConfig(a, b *Int) error {
	if a.width != b.width || a.signed != b.signed {
		return &ErrWidthMismatch{A: a.width, B: b.width}
	}
	return nil
}

// resultSecrecy is secret iff either operand is secret.
func resultSecrecy(a, b *Int) bool { return a.secret || b.secret }

func cloneShape(a *Int) *Int {
	return &Int{
		limbs:  make([]uint64, len(a.limbs)),
		width:  a.width,
		signed: a.signed,
	}
}

// addLimbs adds b into a's limb slice with carry propagation, branch-free
// with respect to limb contents (the loop bound is len(a), a compile-time
// shape property, not a value-dependent branch).
func addLimbs(dst, a, b []uint64) uint64 {
	var carry uint64
	for i := range dst {
		var av, bv uint64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		sum, c1 := bits.Add64(av, bv, carry)
		dst[i] = sum
		carry = c1
	}
	return carry
}

func subLimbs(dst, a, b []uint64) uint64 {
	var borrow uint64
	for i := range dst {
		var av, bv uint64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		diff, b1 := bits.Sub64(av, bv, borrow)
		dst[i] = diff
		borrow = b1
	}
	return borrow
}

// Add returns a+b, raising ErrOverflow if the mathematical sum does not fit
// in width bits (checked variant; see AddTruncating for `!+`).
func (a *Int) Add(b *Int) (*Int, error) {
	if err := sameConfig(a, b); err != nil {
		return nil, err
	}
	out := cloneShape(a)
	out.secret = resultSecrecy(a, b)
	carry := addLimbs(out.limbs, a.limbs, b.limbs)
	var overflowed bool
	if a.signed {
		overflowed = signedAddOverflows(a, b, out)
	} else {
		overflowed = carry != 0 || out.significantBitsExceed()
	}
	out.mask()
	if overflowed {
		return out, &ErrOverflow{Op: "+", Width: a.width}
	}
	return out, nil
}

// bitAt returns the bit at position pos (0 = LSB) of limbs, branch-free
// with respect to limb contents.
func bitAt(limbs []uint64, pos int) uint64 {
	limb := pos / 64
	if limb >= len(limbs) {
		return 0
	}
	return (limbs[limb] >> uint(pos%64)) & 1
}

// signedAddOverflows applies the two's-complement overflow rule for
// addition: the sum overflows iff both operands share a sign and the
// sum's sign differs from it. Unlike significantBitsExceed, this never
// misfires on operands of differing sign (e.g. -1+1), since their raw
// two's-complement bit patterns routinely carry past width without the
// mathematical result actually exceeding it.
func signedAddOverflows(a, b, sum *Int) bool {
	signPos := a.width - 1
	as := bitAt(a.limbs, signPos)
	bs := bitAt(b.limbs, signPos)
	ss := bitAt(sum.limbs, signPos)
	return as == bs && ss != as
}

// signedSubOverflows applies the two's-complement overflow rule for
// subtraction: a-b overflows iff the operands differ in sign and the
// difference's sign differs from a's.
func signedSubOverflows(a, b, diff *Int) bool {
	signPos := a.width - 1
	as := bitAt(a.limbs, signPos)
	bs := bitAt(b.limbs, signPos)
	ds := bitAt(diff.limbs, signPos)
	return as != bs && ds != as
}

// AddTruncating is spec.md §4.2's `!+`: add and silently wrap to width.
func (a *Int) AddTruncating(b *Int) (*Int, error) {
	if err := sameConfig(a, b); err != nil {
		return nil, err
	}
	out := cloneShape(a)
	out.secret = resultSecrecy(a, b)
	addLimbs(out.limbs, a.limbs, b.limbs)
	out.mask()
	out.clearGuardBit()
	return out, nil
}

// Sub returns a-b, raising ErrOverflow on unsigned underflow (detected via
// the extra internal bit) or signed overflow.
func (a *Int) Sub(b *Int) (*Int, error) {
	if err := sameConfig(a, b); err != nil {
		return nil, err
	}
	out := cloneShape(a)
	out.secret = resultSecrecy(a, b)
	borrow := subLimbs(out.limbs, a.limbs, b.limbs)
	var overflowed bool
	if a.signed {
		overflowed = signedSubOverflows(a, b, out)
	} else {
		overflowed = borrow != 0
	}
	out.mask()
	if overflowed {
		return out, &ErrOverflow{Op: "-", Width: a.width}
	}
	return out, nil
}

// SubTruncating is `!-`.
func (a *Int) SubTruncating(b *Int) (*Int, error) {
	if err := sameConfig(a, b); err != nil {
		return nil, err
	}
	out := cloneShape(a)
	out.secret = resultSecrecy(a, b)
	subLimbs(out.limbs, a.limbs, b.limbs)
	out.mask()
	out.clearGuardBit()
	return out, nil
}

// Mul returns a*b, raising ErrOverflow if the product does not fit in
// width bits. Implemented with schoolbook long multiplication over 2x the
// limb count so overflow can be observed in the high half before masking;
// the loop structure does not branch on limb values.
func (a *Int) Mul(b *Int) (*Int, error) {
	if err := sameConfig(a, b); err != nil {
		return nil, err
	}
	wide := make([]uint64, 2*len(a.limbs))
	for i, av := range a.limbs {
		var carry uint64
		for j, bv := range b.limbs {
			hi, lo := bits.Mul64(av, bv)
			sum1, c1 := bits.Add64(wide[i+j], lo, 0)
			sum2, c2 := bits.Add64(sum1, carry, 0)
			wide[i+j] = sum2
			carry = hi + c1 + c2
		}
		wide[i+len(b.limbs)] += carry
	}

	out := cloneShape(a)
	out.secret = resultSecrecy(a, b)
	copy(out.limbs, wide[:len(out.limbs)])

	overflow := false
	for _, extra := range wide[len(out.limbs):] {
		if extra != 0 {
			overflow = true
		}
	}
	out.mask()
	if overflow || out.significantBitsExceed() {
		return out, &ErrOverflow{Op: "*", Width: a.width}
	}
	return out, nil
}

// MulTruncating is `!*`.
func (a *Int) MulTruncating(b *Int) (*Int, error) {
	out, err := a.Mul(b)
	if _, isOverflow := err.(*ErrOverflow); err != nil && !isOverflow {
		return nil, err
	}
	out.clearGuardBit()
	return out, nil
}

// significantBitsExceed reports whether any bit at or above the logical
// width (including the unsigned underflow guard bit) is set, i.e. whether
// reducing the value to width bits would discard significant information.
func (x *Int) significantBitsExceed() bool {
	full := x.width / 64
	rem := x.width % 64
	var excess uint64
	for i, limb := range x.limbs {
		switch {
		case i < full:
			continue
		case i == full && rem > 0:
			excess |= limb >> uint(rem)
		default:
			if i >= full {
				excess |= limb
			}
		}
	}
	return excess != 0
}

// TruncateTo returns a copy of x narrowed/widened to newWidth, wrapping
// silently (`!<T>`, the explicit truncating cast of spec.md §4.2).
func (x *Int) TruncateTo(newWidth int) (*Int, error) {
	out, err := New(newWidth, x.signed, x.secret)
	if err != nil {
		return nil, err
	}
	copy(out.limbs, x.limbs)
	out.mask()
	out.clearGuardBit()
	return out, nil
}

// CastTo is the checked cast: it raises ErrOverflow if any bits above
// newWidth are set (i.e. if the cast would be lossy).
func (x *Int) CastTo(newWidth int) (*Int, error) {
	out, err := x.TruncateTo(newWidth)
	if err != nil {
		return nil, err
	}
	narrower := &Int{limbs: append([]uint64(nil), x.limbs...), width: newWidth, signed: x.signed, secret: x.secret}
	if narrower.significantBitsExceed() {
		return out, &ErrOverflow{Op: "cast", Width: newWidth}
	}
	return out, nil
}

// Equal is constant time with respect to operand value: every limb pair is
// compared and the results combined with bitwise OR, never short-circuited.
func (x *Int) Equal(y *Int) bool {
	if err := sameConfig(x, y); err != nil {
		return false
	}
	var diff uint64
	for i := range x.limbs {
		diff |= x.limbs[i] ^ y.limbs[i]
	}
	return diff == 0
}

// Uint64 returns the low 64 bits, for widths that fit in a machine word.
func (x *Int) Uint64() uint64 {
	if len(x.limbs) == 0 {
		return 0
	}
	return x.limbs[0]
}

// EncodeLE returns the little-endian byte encoding of x at its declared
// width, rounded up to whole bytes.
func (x *Int) EncodeLE() []byte {
	nbytes := (x.width + 7) / 8
	out := make([]byte, nbytes)
	for i := 0; i < nbytes; i++ {
		limb := x.limbs[i/8]
		shift := uint((i % 8) * 8)
		out[i] = byte(limb >> shift)
	}
	return out
}

// DecodeLE is the inverse of EncodeLE: decode-little-endian(encode-little-
// endian(x)) == x at the same width (spec.md §8 round-trip property).
func DecodeLE(width int, signed, secret bool, data []byte) (*Int, error) {
	out, err := New(width, signed, secret)
	if err != nil {
		return nil, err
	}
	for i, b := range data {
		limbIdx := i / 8
		if limbIdx >= len(out.limbs) {
			break
		}
		shift := uint((i % 8) * 8)
		out.limbs[limbIdx] |= uint64(b) << shift
	}
	out.mask()
	return out, nil
}
