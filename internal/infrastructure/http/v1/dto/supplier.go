package dto

import (
	"milltrack/internal/core/entity"
	"milltrack/internal/domain/catalogs/supplier"
)

// --- Request DTOs ---

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	TaxID         *string           `json:"taxId"`
	ContactPerson *string           `json:"contactPerson"`
	Phone         *string           `json:"phone"`
	Email         *string           `json:"email"`
	Address       *string           `json:"address"`
	Status        supplier.Status   `json:"status"`
	Comment       *string           `json:"comment"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	sp := supplier.NewSupplier(r.Code, r.Name)
	sp.TaxID = r.TaxID
	sp.ContactPerson = r.ContactPerson
	sp.Phone = r.Phone
	sp.Email = r.Email
	sp.Address = r.Address
	if r.Status != "" {
		sp.Status = r.Status
	}
	sp.Comment = r.Comment
	sp.ParentID = r.ParentID
	sp.IsFolder = r.IsFolder
	sp.Attributes = r.Attributes
	return sp
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	TaxID         *string           `json:"taxId"`
	ContactPerson *string           `json:"contactPerson"`
	Phone         *string           `json:"phone"`
	Email         *string           `json:"email"`
	Address       *string           `json:"address"`
	Status        supplier.Status   `json:"status"`
	Comment       *string           `json:"comment"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
	Version       int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierRequest) ApplyTo(sp *supplier.Supplier) {
	sp.Code = r.Code
	sp.Name = r.Name
	sp.TaxID = r.TaxID
	sp.ContactPerson = r.ContactPerson
	sp.Phone = r.Phone
	sp.Email = r.Email
	sp.Address = r.Address
	sp.Status = r.Status
	sp.Comment = r.Comment
	sp.ParentID = r.ParentID
	sp.IsFolder = r.IsFolder
	sp.Attributes = r.Attributes
	sp.Version = r.Version
}

// --- Response DTOs ---

// SupplierResponse is the response body for a supplier.
type SupplierResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	TaxID         *string           `json:"taxId,omitempty"`
	ContactPerson *string           `json:"contactPerson,omitempty"`
	Phone         *string           `json:"phone,omitempty"`
	Email         *string           `json:"email,omitempty"`
	Address       *string           `json:"address,omitempty"`
	Status        supplier.Status   `json:"status"`
	Comment       *string           `json:"comment,omitempty"`
	ParentID      *string           `json:"parentId,omitempty"`
	IsFolder      bool              `json:"isFolder"`
	DeletionMark  bool              `json:"deletionMark"`
	Version       int               `json:"version"`
	Attributes    entity.Attributes `json:"attributes,omitempty"`
}

// FromSupplier creates response DTO from domain entity.
func FromSupplier(sp *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:            sp.ID.String(),
		Code:          sp.Code,
		Name:          sp.Name,
		TaxID:         sp.TaxID,
		ContactPerson: sp.ContactPerson,
		Phone:         sp.Phone,
		Email:         sp.Email,
		Address:       sp.Address,
		Status:        sp.Status,
		Comment:       sp.Comment,
		ParentID:      sp.ParentID,
		IsFolder:      sp.IsFolder,
		DeletionMark:  sp.DeletionMark,
		Version:       sp.Version,
		Attributes:    sp.Attributes,
	}
}
