package ledger_repo

import (
	"reflect"
	"testing"

	"milltrack/internal/core/entity"
)

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "default", in: "", want: "date DESC"},
		{name: "ascending", in: "date", want: "date ASC"},
		{name: "descending", in: "-date", want: "date DESC"},
		{name: "explicit plus", in: "+quantity", want: "quantity ASC"},
		{name: "document number", in: "-document_number", want: "document_number DESC"},
		{name: "batch", in: "batch", want: "batch ASC"},
		{name: "unknown field", in: "stock_after", wantErr: true},
		{name: "injection attempt", in: "date; DROP TABLE ldg_daily_sales", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrderBy(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q)\nwant: %s\ngot:  %s", tt.in, tt.want, got)
			}
		})
	}
}

// The column list drives INSERT and SELECT statements; it must follow the
// entity's db tags exactly or scans misalign.
func TestRecordColumnsMatchEntityTags(t *testing.T) {
	typ := reflect.TypeOf(entity.LedgerRecord{})

	tags := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		tags = append(tags, tag)
	}

	if len(tags) != len(recordColumns) {
		t.Fatalf("column count mismatch\nentity tags: %d\nrecordColumns: %d", len(tags), len(recordColumns))
	}
	for i, col := range recordColumns {
		if tags[i] != col {
			t.Errorf("column %d mismatch\nentity tag: %s\nrecordColumns: %s", i, tags[i], col)
		}
	}
}
