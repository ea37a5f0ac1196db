package validate

import "testing"

func TestEmail(t *testing.T) {
	valid := []string{"user@example.com", "a@b.co", " padded@mail.io "}
	for _, s := range valid {
		if !Email(s) {
			t.Errorf("Email(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "not-an-email", "user@", "@domain.com", "user@domain", "two words@mail.com"}
	for _, s := range invalid {
		if Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestWalletAddress(t *testing.T) {
	addr := "0x" + "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0"
	if !WalletAddress(addr) {
		t.Fatalf("WalletAddress(%q) = false, want true", addr)
	}
	invalid := []string{
		"",
		"a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0", // missing prefix
		"0x1234",                  // too short
		"0x" + addr[2:] + "ff",    // too long
		"0xZZb2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0", // not hex
	}
	for _, s := range invalid {
		if WalletAddress(s) {
			t.Errorf("WalletAddress(%q) = true, want false", s)
		}
	}
}

func TestOTP(t *testing.T) {
	if !OTP("123456") {
		t.Error("OTP(123456) = false, want true")
	}
	if OTP("12345") {
		t.Error("OTP(12345) = true, want false")
	}
	if OTP("1234567") {
		t.Error("OTP(1234567) = true, want false")
	}
}

func TestAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{"0.5", 0.5, true},
		{"100.25", 100.25, true},
		{"1000000000", 1e9, true},
		{"1000000000.01", 0, false},
		{"99999999999999999999", 0, false},
		{"0", 0, false},
		{"0.0", 0, false},
		{"-5", 0, false},
		{"ten", 0, false},
		{"1,5", 0, false},
		{".5", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := Amount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Amount(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRecipient(t *testing.T) {
	if !Recipient("a@b.com") {
		t.Error("email recipient rejected")
	}
	if !Recipient("0xa1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0") {
		t.Error("wallet recipient rejected")
	}
	if Recipient("nonsense") {
		t.Error("garbage recipient accepted")
	}
}
