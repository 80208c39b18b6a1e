package dto

import (
	"milltrack/internal/core/entity"
	"milltrack/internal/domain/catalogs/item"
)

// --- Request DTOs ---

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	Kind          item.Kind         `json:"kind" binding:"required"`
	UnitID        *string           `json:"unitId"`
	Status        item.Status       `json:"status"`
	ShelfLifeDays int               `json:"shelfLifeDays"`
	Description   *string           `json:"description"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateItemRequest) ToEntity() *item.Item {
	it := item.NewItem(r.Code, r.Name, r.Kind)
	it.UnitID = r.UnitID
	if r.Status != "" {
		it.Status = r.Status
	}
	it.ShelfLifeDays = r.ShelfLifeDays
	it.Description = r.Description
	it.ParentID = r.ParentID
	it.IsFolder = r.IsFolder
	it.Attributes = r.Attributes
	return it
}

// UpdateItemRequest is the request body for updating an item.
type UpdateItemRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	Kind          item.Kind         `json:"kind" binding:"required"`
	UnitID        *string           `json:"unitId"`
	Status        item.Status       `json:"status"`
	ShelfLifeDays int               `json:"shelfLifeDays"`
	Description   *string           `json:"description"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
	Version       int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateItemRequest) ApplyTo(it *item.Item) {
	it.Code = r.Code
	it.Name = r.Name
	it.Kind = r.Kind
	it.UnitID = r.UnitID
	it.Status = r.Status
	it.ShelfLifeDays = r.ShelfLifeDays
	it.Description = r.Description
	it.ParentID = r.ParentID
	it.IsFolder = r.IsFolder
	it.Attributes = r.Attributes
	it.Version = r.Version
}

// --- Response DTOs ---

// ItemResponse is the response body for an item.
type ItemResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Kind          item.Kind         `json:"kind"`
	UnitID        *string           `json:"unitId,omitempty"`
	Status        item.Status       `json:"status"`
	ShelfLifeDays int               `json:"shelfLifeDays"`
	Description   *string           `json:"description,omitempty"`
	ParentID      *string           `json:"parentId,omitempty"`
	IsFolder      bool              `json:"isFolder"`
	DeletionMark  bool              `json:"deletionMark"`
	Version       int               `json:"version"`
	Attributes    entity.Attributes `json:"attributes,omitempty"`
}

// FromItem creates response DTO from domain entity.
func FromItem(it *item.Item) *ItemResponse {
	return &ItemResponse{
		ID:            it.ID.String(),
		Code:          it.Code,
		Name:          it.Name,
		Kind:          it.Kind,
		UnitID:        it.UnitID,
		Status:        it.Status,
		ShelfLifeDays: it.ShelfLifeDays,
		Description:   it.Description,
		ParentID:      it.ParentID,
		IsFolder:      it.IsFolder,
		DeletionMark:  it.DeletionMark,
		Version:       it.Version,
		Attributes:    it.Attributes,
	}
}
