package registry

import (
	"strings"
	"testing"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Identity
		wantErr bool
	}{
		{
			name: "hex address",
			raw:  "0xAbCd00000000000000000000000000000000Ef12",
			want: "0xabcd00000000000000000000000000000000ef12",
		},
		{
			name: "trims surrounding whitespace",
			raw:  "  user-1  ",
			want: "user-1",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "embedded space",
			raw:     "two words",
			wantErr: true,
		},
		{
			name:    "control character",
			raw:     "user\x01name",
			wantErr: true,
		},
		{
			name:    "too long",
			raw:     strings.Repeat("a", 129),
			wantErr: true,
		},
		{
			name: "at length bound",
			raw:  strings.Repeat("a", 128),
			want: Identity(strings.Repeat("a", 128)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentity(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseIdentity(%q) = %q, want error", tt.raw, got)
				}
				code, ok := CodeOf(err)
				if !ok || code != ErrInvalidIdentity {
					t.Fatalf("ParseIdentity(%q) error code = %v, want ErrInvalidIdentity", tt.raw, code)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIdentity(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseIdentity(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIdentityValid(t *testing.T) {
	if !Identity("0xabc").Valid() {
		t.Error("lowercase identity should be valid")
	}
	if Identity("0xABC").Valid() {
		t.Error("non-normalized identity should be invalid")
	}
	if Identity("").Valid() {
		t.Error("empty identity should be invalid")
	}
	if Identity("has space").Valid() {
		t.Error("identity with whitespace should be invalid")
	}
}
