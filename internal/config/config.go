package config

import "os"

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	AdminPassword     string
	TeamLeadPassword  string
	FCMServiceAccount string
}

func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "fieldpulse.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		TeamLeadPassword:  getEnv("TEAMLEAD_PASSWORD", ""),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
