package xmac

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUint64RoundTrip(t *testing.T) {
	tests := []struct {
		addr string
		want uint64
	}{
		{"00:00:00:00:00:00", 0},
		{"00:00:0c:ab:cd:ef", 0x00000cabcdef},
		{"ff:ff:ff:ff:ff:ff", 0xffffffffffff},
	}
	for _, tt := range tests {
		a := MustParse(tt.addr)
		if got := a.Uint64(); got != tt.want {
			t.Errorf("%s.Uint64() = %#x, want %#x", tt.addr, got, tt.want)
		}
		if back := AddrFromUint64(tt.want); back != a {
			t.Errorf("AddrFromUint64(%#x) = %v, want %v", tt.want, back, a)
		}
	}
	// 高 16 位被丢弃
	if got := AddrFromUint64(0xabcd_00000cabcdef); got != MustParse("00:00:0c:ab:cd:ef") {
		t.Errorf("AddrFromUint64 kept high bits: %v", got)
	}
}

func TestAddrProperties(t *testing.T) {
	laa := MustParse("02:42:ac:11:00:02")
	if !laa.IsLocallyAdministered() || laa.IsMulticast() {
		t.Errorf("%v: want LAA unicast", laa)
	}
	if !Broadcast().IsBroadcast() || !Broadcast().IsMulticast() {
		t.Error("broadcast must be multicast")
	}
	if (Addr{}).IsValid() {
		t.Error("zero Addr must be invalid")
	}
}

func TestFormatString(t *testing.T) {
	a := MustParse("00:1b:c5:0a:bc:de")
	tests := []struct {
		f    Format
		want string
	}{
		{FormatColon, "00:1b:c5:0a:bc:de"},
		{FormatDash, "00-1b-c5-0a-bc-de"},
		{FormatDot, "001b.c50a.bcde"},
		{FormatBare, "001bc50abcde"},
		{FormatColonUpper, "00:1B:C5:0A:BC:DE"},
		{FormatDashUpper, "00-1B-C5-0A-BC-DE"},
		{Format(99), "00:1b:c5:0a:bc:de"},
	}
	for _, tt := range tests {
		if got := a.FormatString(tt.f); got != tt.want {
			t.Errorf("FormatString(%d) = %q, want %q", tt.f, got, tt.want)
		}
	}
	if got := (Addr{}).String(); got != "00:00:00:00:00:00" {
		t.Errorf("zero String() = %q", got)
	}
}

func TestAddrJSON(t *testing.T) {
	type asset struct {
		MAC Addr `json:"mac"`
	}
	data, err := json.Marshal(asset{MAC: MustParse("AA-BB-CC-DD-EE-FF")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"mac":"aa:bb:cc:dd:ee:ff"}` {
		t.Errorf("Marshal() = %s", data)
	}
	var back asset
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.MAC != MustParse("aa:bb:cc:dd:ee:ff") {
		t.Errorf("Unmarshal() = %v", back.MAC)
	}
	var nilAddr *Addr
	if err := nilAddr.UnmarshalText([]byte("aa:bb:cc:dd:ee:ff")); !errors.Is(err, ErrNilReceiver) {
		t.Errorf("nil UnmarshalText() error = %v", err)
	}
}
