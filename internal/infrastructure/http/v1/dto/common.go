// Package dto provides Data Transfer Objects for API requests/responses.
//
// Every catalog carries its own flat request and response shapes; the
// generic catalog handler connects them through mapper functions. Only
// the envelopes shared by all endpoints live here.
package dto

// ListResponse wraps list results with paging information.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SetDeletionMarkRequest toggles the deletion mark on a catalog row.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}
