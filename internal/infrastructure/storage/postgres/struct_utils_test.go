package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
)

type testCatalogRow struct {
	entity.BaseCatalog
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	Loaded   string `db:"-"`
	internal string
}

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[testCatalogRow]()

	assert.ElementsMatch(t,
		[]string{"id", "deletion_mark", "version", "attributes", "code", "name"},
		cols,
	)
}

func TestStructToMap_SkipsUntaggedFields(t *testing.T) {
	row := testCatalogRow{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
				Attributes:   entity.Attributes{"сорт": "высший"},
			},
		},
		Code:     "МУК-0001",
		Name:     "Мука пшеничная в/с",
		Loaded:   "ignored",
		internal: "ignored",
	}

	m := StructToMap(row)

	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, entity.Attributes{"сорт": "высший"}, m["attributes"])
	assert.Equal(t, "МУК-0001", m["code"])
	assert.Equal(t, "Мука пшеничная в/с", m["name"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 6)
}

func TestStructToMap_PointerAndNonStruct(t *testing.T) {
	row := &testCatalogRow{Code: "X"}
	m := StructToMap(row)
	assert.Equal(t, "X", m["code"])

	assert.Nil(t, StructToMap(42))
}
