package errors

import (
	"strings"
	"testing"
)

func TestValidateSlotID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid simple", id: "before", wantErr: false},
		{name: "valid with dash", id: "slot-a", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("a", 65), wantErr: true},
		{name: "control character", id: "slot\x00a", wantErr: true},
		{name: "path separator", id: "slot/a", wantErr: true},
		{name: "traversal", id: "..slot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlotID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlotID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeValidation) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeValidation)
			}
		})
	}
}

func TestValidateFeatureKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "background remove", key: "background_remove", wantErr: false},
		{name: "with digits", key: "upscale_2x", wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "uppercase", key: "Background_Remove", wantErr: true},
		{name: "spaces", key: "background remove", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeatureKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFeatureKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://cdn.example.com/out.png", wantErr: false},
		{name: "http", url: "http://cdn.example.com/out.png", wantErr: false},
		{name: "file scheme", url: "file:///tmp/capture.jpg", wantErr: false},
		{name: "bare local path", url: "/tmp/capture.jpg", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsRemoteURL(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"https://cdn/x.png", true},
		{"http://cdn/x.png", true},
		{"file:///tmp/x.png", false},
		{"/var/cache/x.png", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsRemoteURL(tt.uri); got != tt.want {
			t.Errorf("IsRemoteURL(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}

func TestValidateStoragePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid nested", path: "projects/p1/slots/before.jpg", wantErr: false},
		{name: "empty", path: "", wantErr: true},
		{name: "absolute", path: "/projects/p1.jpg", wantErr: true},
		{name: "traversal", path: "projects/../secrets", wantErr: true},
		{name: "backslash", path: "projects\\p1.jpg", wantErr: true},
		{name: "too long", path: strings.Repeat("a/", 300), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStoragePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStoragePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
