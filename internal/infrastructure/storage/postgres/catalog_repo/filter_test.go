package catalog_repo

import (
	"context"
	"strings"
	"testing"

	"milltrack/internal/domain/filter"
)

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("cat_items", []string{"id", "code", "name", "shelf_life_days"}, func() any { return nil })
	ctx := context.Background()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Equal",
			item:     filter.Item{Field: "code", Operator: filter.Equal, Value: "ITM-2025-00001"},
			wantSQL:  "SELECT id, code, name, shelf_life_days FROM cat_items WHERE code = $1",
			wantArgs: []any{"ITM-2025-00001"},
		},
		{
			name:     "Greater",
			item:     filter.Item{Field: "shelf_life_days", Operator: filter.Greater, Value: 90},
			wantSQL:  "SELECT id, code, name, shelf_life_days FROM cat_items WHERE shelf_life_days > $1",
			wantArgs: []any{90},
		},
		{
			name:     "Less",
			item:     filter.Item{Field: "shelf_life_days", Operator: filter.Less, Value: 365},
			wantSQL:  "SELECT id, code, name, shelf_life_days FROM cat_items WHERE shelf_life_days < $1",
			wantArgs: []any{365},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "name", Operator: filter.Contains, Value: "flour"},
			wantSQL:  "SELECT id, code, name, shelf_life_days FROM cat_items WHERE name ILIKE $1",
			wantArgs: []any{"%flour%"},
		},
		{
			name:    "IsNull",
			item:    filter.Item{Field: "shelf_life_days", Operator: filter.IsNull},
			wantSQL: "SELECT id, code, name, shelf_life_days FROM cat_items WHERE shelf_life_days IS NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseQ := repo.baseSelect(ctx)
			q, err := repo.applyAdvancedFilters(ctx, baseQ, []filter.Item{tt.item})
			if err != nil {
				t.Fatalf("applyAdvancedFilters failed: %v", err)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("Args mismatch at %d\nwant: %v\ngot:  %v", i, tt.wantArgs[i], args[i])
				}
			}
		})
	}
}

func TestApplyAdvancedFilters_Hierarchy(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("cat_items", []string{"id", "code", "name"}, func() any { return nil })
	ctx := context.Background()

	q, err := repo.applyAdvancedFilters(ctx, repo.baseSelect(ctx), []filter.Item{
		{Field: "parent_id", Operator: filter.InHierarchy, Value: "root-id"},
	})
	if err != nil {
		t.Fatalf("applyAdvancedFilters failed: %v", err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "WITH RECURSIVE hierarchy") {
		t.Errorf("expected recursive CTE in SQL, got: %s", sql)
	}
	if len(args) != 1 || args[0] != "root-id" {
		t.Errorf("unexpected args: %v", args)
	}
}

// Arbitrary column names come straight from the request body; anything not
// whitelisted must be rejected before it reaches SQL.
func TestApplyAdvancedFilters_RejectsUnknownColumn(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("cat_items", []string{"id", "code", "name"}, func() any { return nil })
	ctx := context.Background()

	_, err := repo.applyAdvancedFilters(ctx, repo.baseSelect(ctx), []filter.Item{
		{Field: "name; DROP TABLE cat_items", Operator: filter.Equal, Value: "x"},
	})
	if err == nil {
		t.Fatal("expected rejection of non-whitelisted column")
	}
}
