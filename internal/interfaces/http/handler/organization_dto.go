package handler

// OrganizationListQuery represents the query of the organization directory
type OrganizationListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"q"`
	Type     string `form:"type" binding:"omitempty,oneof=sekolah dinas umum"`
}

// CreateOrganizationRequest represents the request body for a new organization
type CreateOrganizationRequest struct {
	Slug       string  `json:"slug" binding:"omitempty,max=100" example:"sdn-1-cilebar"`
	Name       string  `json:"name" binding:"required,max=200" example:"SDN 1 Cilebar"`
	Type       string  `json:"type" binding:"required,oneof=sekolah dinas umum" example:"sekolah"`
	LogoURL    *string `json:"logo_url" binding:"omitempty,url"`
	FaviconURL *string `json:"favicon_url" binding:"omitempty,url"`
	Address    *string `json:"address" binding:"omitempty,max=500"`
	ThemeColor string  `json:"theme_color" binding:"omitempty,hexcolor" example:"#2563eb"`
}

// UpdateOrganizationRequest represents a partial organization update
type UpdateOrganizationRequest struct {
	Slug       *string `json:"slug" binding:"omitempty,max=100"`
	Name       *string `json:"name" binding:"omitempty,max=200"`
	Type       *string `json:"type" binding:"omitempty,oneof=sekolah dinas umum"`
	LogoURL    *string `json:"logo_url" binding:"omitempty,url"`
	FaviconURL *string `json:"favicon_url" binding:"omitempty,url"`
	Address    *string `json:"address" binding:"omitempty,max=500"`
	ThemeColor *string `json:"theme_color" binding:"omitempty,hexcolor"`
}

// UpdateSchoolDataRequest edits the operator-owned school profile.
// Extras keys must not shadow the known stats.
type UpdateSchoolDataRequest struct {
	Level        *string        `json:"level" binding:"omitempty,max=50"`
	StudentCount *int           `json:"student_count" binding:"omitempty,min=0"`
	TeacherCount *int           `json:"teacher_count" binding:"omitempty,min=0"`
	ClassCount   *int           `json:"class_count" binding:"omitempty,min=0"`
	Vision       *string        `json:"vision"`
	Mission      *string        `json:"mission"`
	ContactEmail *string        `json:"contact_email" binding:"omitempty,email"`
	ContactPhone *string        `json:"contact_phone" binding:"omitempty,max=30"`
	Lat          *float64       `json:"lat" binding:"omitempty,latitude"`
	Lng          *float64       `json:"lng" binding:"omitempty,longitude"`
	Extras       map[string]any `json:"extras"`
}

// RequestCodeRequest asks for a verification code
type RequestCodeRequest struct {
	Type   string `json:"type" binding:"required,oneof=email whatsapp" example:"email"`
	Target string `json:"target" binding:"required,max=200" example:"sdn1@example.com"`
}

// ConfirmCodeRequest submits a verification code
type ConfirmCodeRequest struct {
	Type   string `json:"type" binding:"required,oneof=email whatsapp"`
	Target string `json:"target" binding:"required,max=200"`
	Code   string `json:"code" binding:"required,max=10" example:"123456"`
}
