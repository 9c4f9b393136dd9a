package domain

import "testing"

func TestParseAddress(t *testing.T) {
	valid := []string{
		"0x1234123412341234123412341234123412341234",
		"1234123412341234123412341234123412341234",
		"0xABCD123412341234123412341234123412341234",
	}
	for _, s := range valid {
		if _, err := ParseAddress(s); err != nil {
			t.Fatalf("expected %q to parse, got %v", s, err)
		}
	}

	invalid := []string{
		"",
		"0x",
		"0x1234",
		"0xzz34123412341234123412341234123412341234",
		"0x123412341234123412341234123412341234123412", // 21 bytes
	}
	for _, s := range invalid {
		if _, err := ParseAddress(s); err == nil {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestAddressRoundTrip(t *testing.T) {
	const s = "0xabcdef0123456789abcdef0123456789abcdef01"
	addr, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr.String() != s {
		t.Fatalf("expected %q, got %q", s, addr.String())
	}
	if addr.IsZero() {
		t.Fatal("non-zero address reported as zero")
	}
	if !ZeroAddress.IsZero() {
		t.Fatal("zero address not reported as zero")
	}

	// Mixed case normalizes to lower.
	upper, err := ParseAddress("0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	if err != nil {
		t.Fatalf("parse upper: %v", err)
	}
	if upper != addr {
		t.Fatal("case should not affect the parsed address")
	}
}

func TestParseHash(t *testing.T) {
	const s = "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"
	h, err := ParseHash(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.String() != s {
		t.Fatalf("expected %q, got %q", s, h.String())
	}

	for _, bad := range []string{"", "0x12", "not hex at all"} {
		if _, err := ParseHash(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestKeccak256(t *testing.T) {
	// Well-known digest of the empty input.
	got := Keccak256()
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got.String() != want {
		t.Fatalf("keccak256(): expected %s, got %s", want, got)
	}

	// Hashing one buffer and hashing its pieces must agree.
	joined := Keccak256([]byte("hello world"))
	split := Keccak256([]byte("hello "), []byte("world"))
	if joined != split {
		t.Fatal("split input should hash identically to joined input")
	}
}

func TestNamehash(t *testing.T) {
	// Reference vectors from the ENS specification.
	cases := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}
	for _, tc := range cases {
		if got := Namehash(tc.name).String(); got != tc.want {
			t.Fatalf("namehash(%q): expected %s, got %s", tc.name, tc.want, got)
		}
	}

	// A child node is the parent node hashed with the label hash.
	parent := Namehash("eth")
	label := Keccak256([]byte("foo"))
	if Keccak256(parent.Bytes(), label.Bytes()) != Namehash("foo.eth") {
		t.Fatal("namehash should compose from parent and label hash")
	}
}
