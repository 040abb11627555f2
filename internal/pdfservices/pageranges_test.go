package pdfservices

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPageRangesBuilders(t *testing.T) {
	var pr PageRanges
	pr.AddSinglePage(1).AddRange(3, 4).AddAllFrom(7)

	want := PageRanges{{Start: 1, End: 1}, {Start: 3, End: 4}, {Start: 7}}
	if diff := cmp.Diff(want, pr); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	if got := pr.String(); got != "1,3-4,7-" {
		t.Errorf("String() = %q", got)
	}
	if got := pr.MaxPage(); got != 7 {
		t.Errorf("MaxPage() = %d, want 7", got)
	}
}

func TestParsePageRanges(t *testing.T) {
	tests := []struct {
		in      string
		want    PageRanges
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "2", want: PageRanges{{Start: 2, End: 2}}},
		{in: "1-3, 5-", want: PageRanges{{Start: 1, End: 3}, {Start: 5}}},
		{in: "0", wantErr: true},
		{in: "4-2", wantErr: true},
		{in: "a-b", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePageRanges(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParsePageRanges(%q) error = %v, want validation error", tc.in, err)
			}
			if got != nil {
				t.Errorf("ParsePageRanges(%q) = %v alongside an error, want nil", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePageRanges(%q): %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParsePageRanges(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
