package models

// AppSettings is the singleton configuration document.
type AppSettings struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Logo     *string `json:"logo"`
}

func (s *AppSettings) GetID() string   { return s.ID }
func (s *AppSettings) SetID(id string) { s.ID = id }

const (
	SettingsID      = "app_config"
	DefaultAppName  = "AFTRAS CRM"
	DefaultCurrency = "FCFA"
)

// DefaultAppSettings is served whenever the settings document is missing or
// unreadable.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{ID: SettingsID, Name: DefaultAppName, Currency: DefaultCurrency}
}
