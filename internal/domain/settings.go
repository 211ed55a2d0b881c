package domain

// Settings is the single-row site configuration. Shipping costs are tiyin.
// TelegramChatIDs is a comma-separated list of chat ids to notify.
type Settings struct {
	SiteName              string `json:"site_name"`
	SiteEmail             string `json:"site_email"`
	SitePhone             string `json:"site_phone"`
	SiteAddress           string `json:"site_address"`
	FreeShippingThreshold int64  `json:"free_shipping_threshold"`
	StandardShippingCost  int64  `json:"standard_shipping_cost"`
	ExpressShippingCost   int64  `json:"express_shipping_cost"`
	CurrencyCode          string `json:"currency_code"`
	CurrencySymbol        string `json:"currency_symbol"`
	FacebookURL           string `json:"facebook_url,omitempty"`
	InstagramURL          string `json:"instagram_url,omitempty"`
	TwitterURL            string `json:"twitter_url,omitempty"`
	TelegramBotToken      string `json:"telegram_bot_token,omitempty"`
	TelegramChatIDs       string `json:"telegram_chat_ids,omitempty"`
}

// DefaultSettings are used until the admin saves a row.
func DefaultSettings() Settings {
	return Settings{
		SiteName:       "Orient Watch",
		CurrencyCode:   "UZS",
		CurrencySymbol: "so'm",
	}
}
