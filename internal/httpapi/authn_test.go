package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"  Bearer   spaced  ", "spaced", false},
		{"", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer ", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error, got %q", tc.header, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/v1/auth/signup", "/v1/auth/login", "/healthz", "/readyz", "/metrics", "/v1/info"}
	for _, p := range public {
		if !isPublicPath(p) {
			t.Fatalf("%s should be public", p)
		}
	}
	private := []string{"/v1/auth/status", "/v1/admin/tests", "/v1/users", "/v1/mail/count/7"}
	for _, p := range private {
		if isPublicPath(p) {
			t.Fatalf("%s should require a token", p)
		}
	}
}
