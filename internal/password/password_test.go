package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	// Low cost keeps the test fast; the algorithm is the same.
	h := NewHasher(4)

	digest, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if digest == "secret1" || digest == "" {
		t.Fatalf("digest must not be empty or equal to the plaintext: %q", digest)
	}
	if !h.Verify("secret1", digest) {
		t.Fatal("Verify should accept the original plaintext")
	}
	if h.Verify("secret2", digest) {
		t.Fatal("Verify should reject a different plaintext")
	}
}

func TestHashIsSalted(t *testing.T) {
	t.Parallel()

	h := NewHasher(4)

	first, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same plaintext should differ")
	}
	if !h.Verify("same-input", first) || !h.Verify("same-input", second) {
		t.Fatal("both digests should verify against the plaintext")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	t.Parallel()

	h := NewHasher(4)

	for _, digest := range []string{"", "not-a-bcrypt-digest", "$2a$garbage"} {
		if h.Verify("anything", digest) {
			t.Fatalf("Verify accepted malformed digest %q", digest)
		}
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	t.Parallel()

	// Out-of-range costs fall back to the default instead of failing later.
	h := NewHasher(99)
	if _, err := h.Hash("x"); err != nil {
		t.Fatalf("Hash with clamped cost: %v", err)
	}
}
