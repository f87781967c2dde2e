package xmac

import (
	"errors"
	"net"
	"testing"
)

func TestParse(t *testing.T) {
	want := Addr{bytes: [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}}
	tests := []struct {
		name    string
		input   string
		want    Addr
		wantErr error
	}{
		{"colon_lower", "aa:bb:cc:dd:ee:ff", want, nil},
		{"colon_upper", "AA:BB:CC:DD:EE:FF", want, nil},
		{"dash_mixed", "Aa-Bb-Cc-Dd-Ee-Ff", want, nil},
		{"dot", "aabb.ccdd.eeff", want, nil},
		{"bare", "AABBCCDDEEFF", want, nil},
		{"spaces", "  aa:bb:cc:dd:ee:ff  ", want, nil},
		{"zero", "00:00:00:00:00:00", Addr{}, nil},
		{"broadcast", "ff:ff:ff:ff:ff:ff", Broadcast(), nil},

		{"empty", "", Addr{}, ErrEmpty},
		{"only_space", "   ", Addr{}, ErrEmpty},
		{"too_short", "aa:bb:cc", Addr{}, ErrInvalidFormat},
		{"too_long", "aa:bb:cc:dd:ee:ff:00", Addr{}, ErrInvalidFormat},
		{"eui64", "aa:bb:cc:dd:ee:ff:00:11", Addr{}, ErrInvalidLength},
		{"invalid_hex", "gg:hh:ii:jj:kk:ll", Addr{}, ErrInvalidFormat},
		{"invalid_bare_hex", "gghhiijjkkll", Addr{}, ErrInvalidFormat},
		{"dot_invalid_hex", "ggbb.ccdd.eeff", Addr{}, ErrInvalidFormat},
		{"mixed_separator", "aa:bb-cc:dd-ee:ff", Addr{}, ErrInvalidFormat},
		{"wrong_separator", "aa;bb;cc;dd;ee;ff", Addr{}, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse(invalid) did not panic")
		}
	}()
	MustParse("invalid")
}

func TestParseBytes(t *testing.T) {
	if _, err := ParseBytes([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("ParseBytes(3 bytes) error = %v, want %v", err, ErrInvalidLength)
	}
	hw, _ := net.ParseMAC("00:00:0c:ab:cd:ef")
	got, err := FromHardwareAddr(hw)
	if err != nil {
		t.Fatalf("FromHardwareAddr() error = %v", err)
	}
	if got != MustParse("00:00:0c:ab:cd:ef") {
		t.Errorf("FromHardwareAddr() = %v", got)
	}
}

func TestParseGroups(t *testing.T) {
	tests := []struct {
		input string
		sep   byte
		n     int
		ok    bool
	}{
		{"00", 0, 1, true},
		{"00000c", 0, 3, true},
		{"00000c01", 0, 4, true},
		{"00000", 0, 0, false},
		{"", 0, 0, false},
		{"00:00:0c", ':', 3, true},
		{"00-1b-c5-00-00-00", '-', 6, true},
		{"00:00:0c:00:00:00:00", ':', 0, false},
		{"00:00:", ':', 0, false},
		{"0:00:0c", ':', 0, false},
		{"00:000c", ':', 0, false},
		{"00:00-0c", ':', 0, false},
		{"zz:00:0c", ':', 0, false},
	}
	for _, tt := range tests {
		_, n, err := parseGroups(tt.input, tt.sep)
		if (err == nil) != tt.ok {
			t.Errorf("parseGroups(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && n != tt.n {
			t.Errorf("parseGroups(%q) n = %d, want %d", tt.input, n, tt.n)
		}
	}
}
