package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	DBPath      string
	BaseURL     string
	DistDir     string
	CORSOrigins []string
	AdminToken  string

	// Payme merchant credentials. SandboxLogin is the alternate login the
	// gateway sandbox sends instead of the merchant id.
	PaymeMerchantID   string
	PaymeKey          string
	PaymeSandboxLogin string
	PaymeCheckoutURL  string
	// AmountTolerance is the allowed absolute difference, in tiyin, between
	// the callback amount and the order total.
	AmountTolerance int64

	TelegramAPIBase string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	origins := strings.Split(getenv("CORS_ORIGINS",
		"http://localhost:5173,http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		Port:        getenv("PORT", "8080"),
		DBPath:      getenv("DB_PATH", "orient.db"),
		BaseURL:     getenv("BASE_URL", "https://orientwatch.uz"),
		DistDir:     getenv("DIST_DIR", "dist"),
		CORSOrigins: origins,
		AdminToken:  getenv("ADMIN_TOKEN", ""),

		PaymeMerchantID:   getenv("PAYME_MERCHANT_ID", ""),
		PaymeKey:          getenv("PAYME_KEY", ""),
		PaymeSandboxLogin: getenv("PAYME_SANDBOX_LOGIN", "Paycom"),
		PaymeCheckoutURL:  getenv("PAYME_CHECKOUT_URL", "https://checkout.paycom.uz"),
		AmountTolerance:   getInt64("PAYME_AMOUNT_TOLERANCE", 10),

		TelegramAPIBase: getenv("TELEGRAM_API_BASE", "https://api.telegram.org"),
	}
}
