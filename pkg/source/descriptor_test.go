package source

import (
	"errors"
	"reflect"
	"testing"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		want     *Descriptor
		wantCode bpmerrors.Code
	}{
		{
			name: "full",
			data: `{"name":"Alpha","version":"1.0","author":"bad","bin":"bin/alpha","homepage":"https://example.com","requires":["beta","gamma"]}`,
			want: &Descriptor{
				ID: "alpha", Name: "Alpha", Version: "1.0", Author: "bad",
				Bin: "bin/alpha", Homepage: "https://example.com",
				Requires: []string{"beta", "gamma"},
			},
		},
		{
			name: "requires omitted",
			data: `{"name":"Alpha","version":"1.0","author":"bad"}`,
			want: &Descriptor{ID: "alpha", Name: "Alpha", Version: "1.0", Author: "bad", Requires: []string{}},
		},
		{
			name: "requires kept verbatim",
			data: `{"name":"Alpha","version":"1.0","author":"bad","requires":["alpha","beta","beta"]}`,
			want: &Descriptor{ID: "alpha", Name: "Alpha", Version: "1.0", Author: "bad", Requires: []string{"alpha", "beta", "beta"}},
		},
		{
			name: "empty strings accepted",
			data: `{"name":"","version":"","author":""}`,
			want: &Descriptor{ID: "alpha", Requires: []string{}},
		},
		{name: "missing version", data: `{"name":"Alpha","author":"bad"}`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "missing all", data: `{}`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "not json", data: `<html>`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "array", data: `[]`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "wrong type", data: `{"name":1,"version":"1","author":"a"}`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "escaping bin", data: `{"name":"A","version":"1","author":"a","bin":"../../etc/passwd"}`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
		{name: "absolute bin", data: `{"name":"A","version":"1","author":"a","bin":"/usr/bin/a"}`, wantCode: bpmerrors.ErrCodeMalformedMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDescriptor("alpha", []byte(tt.data))
			if tt.wantCode != "" {
				if !bpmerrors.Is(err, tt.wantCode) {
					t.Fatalf("ParseDescriptor() error = %v, want code %s", err, tt.wantCode)
				}
				var e *bpmerrors.Error
				if errors.As(err, &e) && e.Package != "alpha" {
					t.Errorf("error package = %q, want alpha", e.Package)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDescriptor() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDescriptor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPackageString(t *testing.T) {
	p := &Package{Descriptor: Descriptor{ID: "alpha", Name: "Alpha", Version: "1.0"}}
	if got := p.String(); got != "alpha-1.0 (Alpha)" {
		t.Errorf("String() = %q", got)
	}
	if p.HasBinary() {
		t.Error("HasBinary() = true for package without URL")
	}
}
