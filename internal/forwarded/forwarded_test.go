package forwarded

import (
	"reflect"
	"testing"
)

// TestParse_Table exercises the RFC 7239 parser across well-formed, quoted,
// and malformed inputs.
func TestParse_Table(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []Element
	}{
		{
			name:   "single element",
			header: "for=192.0.2.60;proto=https;by=203.0.113.43",
			want:   []Element{{For: "192.0.2.60", Proto: "https", By: "203.0.113.43"}},
		},
		{
			name:   "multiple elements",
			header: "for=192.0.2.43, for=198.51.100.17;proto=http",
			want: []Element{
				{For: "192.0.2.43"},
				{For: "198.51.100.17", Proto: "http"},
			},
		},
		{
			name:   "quoted ipv6 with port",
			header: `for="[2001:db8:cafe::17]:4711";host=example.com`,
			want:   []Element{{For: "[2001:db8:cafe::17]:4711", Host: "example.com"}},
		},
		{
			name:   "comma inside quotes is not a separator",
			header: `for="a,b";proto=https`,
			want:   []Element{{For: "a,b", Proto: "https"}},
		},
		{
			name:   "case-insensitive keys",
			header: "For=192.0.2.1;Proto=HTTPS",
			want:   []Element{{For: "192.0.2.1", Proto: "HTTPS"}},
		},
		{
			name:   "unknown params skipped",
			header: "secret=x;proto=https",
			want:   []Element{{Proto: "https"}},
		},
		{
			name:   "fully malformed",
			header: "not a forwarded header",
			want:   nil,
		},
		{
			name:   "empty",
			header: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.header); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

// TestUnquote_Escapes verifies backslash escape resolution inside quoted values.
func TestUnquote_Escapes(t *testing.T) {
	got := Parse(`host="a\"b"`)
	if len(got) != 1 || got[0].Host != `a"b` {
		t.Errorf("Parse(escaped quote) = %+v, want host a\"b", got)
	}
}
