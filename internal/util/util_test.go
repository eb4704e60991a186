package util

import "testing"

func TestNormalizeBool(t *testing.T) {
	for _, s := range []string{"true", " YES ", "1", "y", "on"} {
		if !NormalizeBool(s) {
			t.Errorf("NormalizeBool(%q) = false", s)
		}
	}
	for _, s := range []string{"", "no", "0", "off", "maybe"} {
		if NormalizeBool(s) {
			t.Errorf("NormalizeBool(%q) = true", s)
		}
	}
}

func TestValidHMAC(t *testing.T) {
	sig := HMACSHA256Hex("secret", "export:leaderboard")
	if !ValidHMAC("secret", "export:leaderboard", sig) {
		t.Error("expected valid signature")
	}
	if ValidHMAC("other", "export:leaderboard", sig) {
		t.Error("signature with other secret accepted")
	}
	if ValidHMAC("secret", "export:leaderboard", "") {
		t.Error("empty signature accepted")
	}
}
