package security

import "testing"

func TestGenerateResetCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateResetCode()
		if err != nil {
			t.Fatalf("GenerateResetCode returned error: %v", err)
		}
		if len(code) != ResetCodeLength {
			t.Fatalf("expected %d characters, got %q", ResetCodeLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code contains non-digit character: %q", code)
			}
		}
	}
}

func TestFormatResetCodePreservesLeadingZeros(t *testing.T) {
	cases := map[int64]string{
		0:      "000000",
		42:     "000042",
		7:      "000007",
		999999: "999999",
		123456: "123456",
	}
	for n, want := range cases {
		if got := formatResetCode(n); got != want {
			t.Fatalf("formatResetCode(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestHashCodeIsDeterministic(t *testing.T) {
	first := HashCode("000042")
	second := HashCode("000042")
	if first != second {
		t.Fatal("hashing the same code twice produced different digests")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
}

func TestHashCodeDistinguishesCodes(t *testing.T) {
	if HashCode("000042") == HashCode("000043") {
		t.Fatal("distinct codes hashed to the same digest")
	}
}
