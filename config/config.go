package config

import "os"

// Server captures process-level configuration read once at startup and
// injected everywhere, so nothing in the service layer touches the environment.
type Server struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Development default; override in any real deployment.
		secret = "dev-secret-change-me"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   secret,
	}
}
