package crypto

import (
	"math/rand"
	"testing"
)

func TestShareNibbles(t *testing.T) {
	a := [32]byte{0xAB, 0xCD, 0x12}
	b := [32]byte{0xAB, 0xCE, 0x12}

	tests := []struct {
		name     string
		a, b     [32]byte
		n        uint32
		expected bool
	}{
		{"zero nibbles always match", a, b, 0, true},
		{"shared whole byte", a, b, 2, true},
		{"shared odd prefix", a, b, 3, true},
		{"diverging low nibble", a, b, 4, false},
		{"diverging beyond", a, b, 5, false},
		{"identical full depth", a, a, 64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShareNibbles(&tt.a, &tt.b, tt.n); got != tt.expected {
				t.Errorf("ShareNibbles(n=%d) = %v, want %v", tt.n, got, tt.expected)
			}
		})
	}
}

func TestShareNibblesOddBoundary(t *testing.T) {
	// Differ only in the low nibble of the last checked byte: an odd n must
	// ignore it, the next even n must not.
	a := [32]byte{0x12, 0x34}
	b := [32]byte{0x12, 0x3F}

	if !ShareNibbles(&a, &b, 3) {
		t.Error("n=3 must ignore the low nibble of byte 1")
	}
	if ShareNibbles(&a, &b, 4) {
		t.Error("n=4 must compare the low nibble of byte 1")
	}
}

func TestShareNibblesFullEquality(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	var a, b [32]byte
	for i := 0; i < 100; i++ {
		rng.Read(a[:])
		b = a
		if !ShareNibbles(&a, &b, 64) {
			t.Fatal("identical digests must share 64 nibbles")
		}
		b[31] ^= 0x01
		if ShareNibbles(&a, &b, 64) {
			t.Fatal("n=64 must be full equality")
		}
	}
}

func TestShareNibblesAgainstCount(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	var a, b [32]byte
	for i := 0; i < 1000; i++ {
		rng.Read(a[:])
		b = a
		// flip one nibble at a random position to fix the shared prefix
		pos := rng.Intn(64)
		if pos%2 == 0 {
			b[pos/2] ^= 0x10
		} else {
			b[pos/2] ^= 0x01
		}

		shared := CountSharedNibbles(&a, &b)
		if shared != pos {
			t.Fatalf("CountSharedNibbles = %d, want %d", shared, pos)
		}
		for n := uint32(0); n <= 64; n++ {
			if got, want := ShareNibbles(&a, &b, n), n <= uint32(shared); got != want {
				t.Fatalf("ShareNibbles(n=%d) = %v with %d shared", n, got, shared)
			}
		}
	}
}
