package bigint

import "testing"

func TestAddOverflowDetected(t *testing.T) {
	a, _ := FromInt64(8, false, false, 200)
	b, _ := FromInt64(8, false, false, 100)

	_, err := a.Add(b)
	if err == nil {
		t.Fatal("expected overflow error adding 200+100 in 8 bits")
	}
}

func TestAddTruncatingWraps(t *testing.T) {
	a, _ := FromInt64(8, false, false, 200)
	b, _ := FromInt64(8, false, false, 100)

	out, err := a.AddTruncating(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Uint64() != (200+100)%256 {
		t.Fatalf("expected wrapped value %d, got %d", (200+100)%256, out.Uint64())
	}
}

func TestSubUnsignedUnderflow(t *testing.T) {
	a, _ := FromInt64(8, false, false, 1)
	b, _ := FromInt64(8, false, false, 2)

	_, err := a.Sub(b)
	if err == nil {
		t.Fatal("expected underflow error for 1-2 unsigned")
	}
}

func TestSignedAddMixedSignNeverOverflows(t *testing.T) {
	a, _ := FromInt64(8, true, false, -1)
	b, _ := FromInt64(8, true, false, 1)

	out, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected overflow for -1+1 in 8 bits: %v", err)
	}
	if out.Uint64() != 0 {
		t.Fatalf("expected -1+1 == 0, got %d", out.Uint64())
	}
}

func TestSignedAddOverflowDetected(t *testing.T) {
	a, _ := FromInt64(8, true, false, 100)
	b, _ := FromInt64(8, true, false, 100)

	if _, err := a.Add(b); err == nil {
		t.Fatal("expected overflow error adding 100+100 in 8-bit signed")
	}
}

func TestSignedAddNegativeOverflowDetected(t *testing.T) {
	a, _ := FromInt64(8, true, false, -100)
	b, _ := FromInt64(8, true, false, -100)

	if _, err := a.Add(b); err == nil {
		t.Fatal("expected overflow error adding -100+-100 in 8-bit signed")
	}
}

func TestSignedSubMixedSignNeverOverflows(t *testing.T) {
	a, _ := FromInt64(8, true, false, -1)
	b, _ := FromInt64(8, true, false, -1)

	out, err := a.Sub(b)
	if err != nil {
		t.Fatalf("unexpected overflow for -1-(-1) in 8 bits: %v", err)
	}
	if out.Uint64() != 0 {
		t.Fatalf("expected -1-(-1) == 0, got %d", out.Uint64())
	}
}

func TestSignedSubOverflowDetected(t *testing.T) {
	a, _ := FromInt64(8, true, false, -100)
	b, _ := FromInt64(8, true, false, 100)

	if _, err := a.Sub(b); err == nil {
		t.Fatal("expected overflow error for -100-100 in 8-bit signed")
	}
}

func TestMulOverflowDetected(t *testing.T) {
	a, _ := FromInt64(8, false, false, 20)
	b, _ := FromInt64(8, false, false, 20)

	_, err := a.Mul(b)
	if err == nil {
		t.Fatal("expected overflow error for 20*20 in 8 bits")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	x, _ := FromInt64(37, false, false, 123456789)

	data := x.EncodeLE()
	y, err := DecodeLE(37, false, false, data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !x.Equal(y) {
		t.Fatalf("round trip mismatch: encoded %x", data)
	}
}

func TestSecretTaintPropagates(t *testing.T) {
	a, _ := FromInt64(32, true, true, 1)
	b, _ := FromInt64(32, true, false, 2)

	out, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Secret() {
		t.Fatal("expected result of secret+non-secret to be secret")
	}
}

func TestCastToDetectsLossyNarrowing(t *testing.T) {
	x, _ := FromInt64(16, false, false, 300)

	if _, err := x.CastTo(8); err == nil {
		t.Fatal("expected overflow error narrowing 300 to 8 bits")
	}

	narrowed, err := x.TruncateTo(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if narrowed.Uint64() != 300%256 {
		t.Fatalf("expected truncated value %d, got %d", 300%256, narrowed.Uint64())
	}
}
