package auth

import "time"

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
	Issuer         string
}

type Config struct {
	JWT JWTConfig
}

func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTokenTTL: 8 * time.Hour,
			Issuer:         "cae",
		},
	}
}
