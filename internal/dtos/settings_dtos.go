package dtos

type UpdateSettingsRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Currency string `json:"currency" validate:"required,min=1,max=10"`
}

// Logo is a data URL or an https URL.
type UpdateLogoRequest struct {
	Logo string `json:"logo" validate:"required,max=2000000"`
}

type LogoResponse struct {
	Logo *string `json:"logo"`
}
