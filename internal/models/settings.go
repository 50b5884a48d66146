package models

// Settings is the dashboard-wide settings document, persisted as a single
// "settings" collection in whichever backend is active.
type Settings struct {
	DashboardTitle string `json:"dashboard_title"`
	Subtitle       string `json:"subtitle,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	// DefaultMonth is a two-digit month token or "all".
	DefaultMonth string `json:"default_month"`
	ThemeColor   string `json:"theme_color,omitempty"`
}

// DefaultSettings returns the settings used before an operator has saved any.
func DefaultSettings() *Settings {
	return &Settings{
		DashboardTitle: "Content Calendar",
		DefaultMonth:   "all",
	}
}
