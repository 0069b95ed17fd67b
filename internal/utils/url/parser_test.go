package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://www.bbb.org/search?find_text=Medical+Billing&page=1",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	got := ResolveURL("https://www.bbb.org/search?page=2", "/us/ca/profile/billing/acme-123")
	want := "https://www.bbb.org/us/ca/profile/billing/acme-123"
	if got != want {
		t.Errorf("ResolveURL = %q, want %q", got, want)
	}

	abs := "https://other.example/profile/x"
	if got := ResolveURL("https://www.bbb.org/", abs); got != abs {
		t.Errorf("absolute href changed: %q", got)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		page     int
		want     string
	}{
		{
			name:     "placeholder",
			template: "https://example.com/search?q=x&page={page}",
			page:     3,
			want:     "https://example.com/search?q=x&page=3",
		},
		{
			name:     "replace existing query param",
			template: "https://example.com/search?page=1&q=x",
			page:     2,
			want:     "https://example.com/search?page=2&q=x",
		},
		{
			name:     "add missing query param",
			template: "https://example.com/search",
			page:     5,
			want:     "https://example.com/search?page=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageURL(tt.template, tt.page)
			if err != nil {
				t.Fatalf("PageURL returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PageURL = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := PageURL("https://example.com", 0); err == nil {
		t.Error("expected error for page 0")
	}
}
