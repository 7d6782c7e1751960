package fresh

import (
	"net/http"
	"testing"
)

func headers(pairs ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// TestFresh_Table exercises the freshness decision across validator
// combinations.
func TestFresh_Table(t *testing.T) {
	tests := []struct {
		name string
		req  http.Header
		res  http.Header
		want bool
	}{
		{
			name: "no conditional headers",
			req:  headers(),
			res:  headers("ETag", `"abc"`),
			want: false,
		},
		{
			name: "matching etag",
			req:  headers("If-None-Match", `"abc"`),
			res:  headers("ETag", `"abc"`),
			want: true,
		},
		{
			name: "mismatched etag",
			req:  headers("If-None-Match", `"abc"`),
			res:  headers("ETag", `"def"`),
			want: false,
		},
		{
			name: "etag in list",
			req:  headers("If-None-Match", `"xyz", "abc"`),
			res:  headers("ETag", `"abc"`),
			want: true,
		},
		{
			name: "wildcard",
			req:  headers("If-None-Match", "*"),
			res:  headers(),
			want: true,
		},
		{
			name: "weak request tag matches strong response tag",
			req:  headers("If-None-Match", `W/"abc"`),
			res:  headers("ETag", `"abc"`),
			want: true,
		},
		{
			name: "strong request tag matches weak response tag",
			req:  headers("If-None-Match", `"abc"`),
			res:  headers("ETag", `W/"abc"`),
			want: true,
		},
		{
			name: "if-none-match without response etag",
			req:  headers("If-None-Match", `"abc"`),
			res:  headers(),
			want: false,
		},
		{
			name: "no-cache reload is never fresh",
			req:  headers("If-None-Match", `"abc"`, "Cache-Control", "no-cache"),
			res:  headers("ETag", `"abc"`),
			want: false,
		},
		{
			name: "unmodified since",
			req:  headers("If-Modified-Since", "Sat, 01 Jan 2022 00:00:00 GMT"),
			res:  headers("Last-Modified", "Fri, 31 Dec 2021 00:00:00 GMT"),
			want: true,
		},
		{
			name: "modified after",
			req:  headers("If-Modified-Since", "Fri, 31 Dec 2021 00:00:00 GMT"),
			res:  headers("Last-Modified", "Sat, 01 Jan 2022 00:00:00 GMT"),
			want: false,
		},
		{
			name: "if-modified-since without last-modified",
			req:  headers("If-Modified-Since", "Sat, 01 Jan 2022 00:00:00 GMT"),
			res:  headers(),
			want: false,
		},
		{
			name: "unparseable if-modified-since",
			req:  headers("If-Modified-Since", "not a date"),
			res:  headers("Last-Modified", "Fri, 31 Dec 2021 00:00:00 GMT"),
			want: false,
		},
		{
			name: "etag match but modified since",
			req: headers(
				"If-None-Match", `"abc"`,
				"If-Modified-Since", "Fri, 31 Dec 2021 00:00:00 GMT",
			),
			res: headers(
				"ETag", `"abc"`,
				"Last-Modified", "Sat, 01 Jan 2022 00:00:00 GMT",
			),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fresh(tt.req, tt.res); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
