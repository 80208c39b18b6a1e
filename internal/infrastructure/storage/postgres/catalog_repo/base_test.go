package catalog_repo

import (
	"testing"

	"milltrack/internal/core/id"
)

func TestBaseCatalogRepo_DeleteSQL(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("cat_suppliers", []string{"id", "code", "name"}, func() any { return nil })
	entityID := id.New()

	q := repo.Builder().
		Delete(repo.tableName).
		Where("id = ?", entityID)

	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "DELETE FROM cat_suppliers WHERE id = $1"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 1 || args[0] != entityID {
		t.Errorf("Args mismatch\nwant: [%v]\ngot:  %v", entityID, args)
	}
}

func TestParseOrderBy_Catalog(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("cat_units", []string{"id", "code", "name", "symbol"}, func() any { return nil })

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "default is name", in: "", want: "name ASC"},
		{name: "selectCols column", in: "symbol", want: "symbol ASC"},
		{name: "descending", in: "-code", want: "code DESC"},
		{name: "explicit plus", in: "+name", want: "name ASC"},
		{name: "unknown column", in: "price", wantErr: true},
		{name: "catalogs carry no audit columns", in: "created_at", wantErr: true},
		{name: "bare minus", in: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.in)
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
				t.Errorf("parseOrderBy(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
