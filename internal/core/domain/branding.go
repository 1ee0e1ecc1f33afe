package domain

// Theme holds the colors injected into the app stylesheet.
type Theme struct {
	Primary    string `json:"primary" yaml:"primary"`
	ContentBg  string `json:"content_bg" yaml:"content_bg"`
	FooterBg   string `json:"footer_bg" yaml:"footer_bg"`
	TextColor  string `json:"text_color" yaml:"text_color"`
	BubbleUser string `json:"bubble_user" yaml:"bubble_user"`
	BubbleBot  string `json:"bubble_bot" yaml:"bubble_bot"`
}

// BrandingConfig is the per-tenant customization of the chat front-end.
type BrandingConfig struct {
	TenantID       string `json:"tenant_id" yaml:"tenant_id"`
	APIURL         string `json:"api_url" yaml:"api_url"`
	WelcomeText    string `json:"welcome_text" yaml:"welcome_text"`
	HeaderText     string `json:"header_text" yaml:"header_text"`
	HeaderIconURL  string `json:"header_icon_url" yaml:"header_icon_url"`
	MessageIconURL string `json:"message_icon_url" yaml:"message_icon_url"`
	Theme          Theme  `json:"theme" yaml:"theme"`
}
