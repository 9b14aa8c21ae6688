package dto

import "github.com/datadik/portal/internal/infrastructure/csvimport"

// SchoolImportResponse represents the response from a school roster import
// @Description Response from school CSV import
type SchoolImportResponse struct {
	TotalRows    int                  `json:"total_rows" example:"120"`
	CreatedRows  int                  `json:"created_rows" example:"15"`
	UpdatedRows  int                  `json:"updated_rows" example:"103"`
	ErrorRows    int                  `json:"error_rows" example:"2"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty" example:"false"`
	TotalErrors  int                  `json:"total_errors,omitempty" example:"2"`
	CreatedSlugs []string             `json:"created_slugs,omitempty"`
}
