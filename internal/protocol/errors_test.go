package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for code := range knownCodes {
		if !IsKnownCode(code) {
			t.Fatalf("expected known code: %q", code)
		}
	}
	if !IsKnownCode("") {
		t.Fatalf("empty code means accepted")
	}
	for _, c := range []string{"E_NOT_DEFINED", "E_INTERNAL", "e_busy"} {
		if IsKnownCode(c) {
			t.Fatalf("expected unknown code rejected: %q", c)
		}
	}
}
