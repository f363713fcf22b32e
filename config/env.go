package config

import (
	"github.com/spf13/viper"
)

// ApplyEnv переопределяет секреты и строки подключения из переменных окружения,
// чтобы не хранить их в config.yaml
func (cfg *AppConfig) ApplyEnv() {
	v := viper.New()
	v.AutomaticEnv()

	if s := v.GetString("JWT_ACCESS_SECRET"); s != "" {
		cfg.JWT.AccessSecret = s
	}
	if s := v.GetString("JWT_REFRESH_SECRET"); s != "" {
		cfg.JWT.RefreshSecret = s
	}
	if s := v.GetString("JWT_ACCESS_EXPIRATION"); s != "" {
		cfg.JWT.AccessTokenTTL = s
	}
	if s := v.GetString("JWT_REFRESH_EXPIRATION"); s != "" {
		cfg.JWT.RefreshTokenTTL = s
	}
	if s := v.GetString("REDIS_URL"); s != "" {
		cfg.RedisConfig.URL = s
	}
	if s := v.GetString("DATABASE_URL"); s != "" {
		cfg.DatabaseConfig.DSN = s
	}
	if s := v.GetString("APP_ENV"); s != "" {
		cfg.Env = s
	}

	if cfg.IsProduction() {
		cfg.Cookie.Secure = true
	}
}
