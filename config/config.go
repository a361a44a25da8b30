// Package config loads application settings from the environment with sane
// development defaults. JWT_SECRET is the only required value.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type App struct {
	Server   Server
	Auth     Auth
	Database Database
}

type Server struct {
	Port int
}

type Auth struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenHeader     string
	Issuer          string
	Audience        []string
	TokenExpiration int
}

type Database struct {
	DSN string
}

// New builds the configuration from the process environment.
func New() *App {
	return &App{
		Server: Server{
			Port: envInt("PORT", 5000),
		},
		Auth: Auth{
			SigningKey:      os.Getenv("JWT_SECRET"),
			SigningMethod:   envString("JWT_SIGNING_METHOD", "HS256"),
			ContextKey:      envString("AUTH_CONTEXT_KEY", "user"),
			TokenHeader:     envString("AUTH_TOKEN_HEADER", "x-auth-token"),
			Issuer:          envString("JWT_ISSUER", "go-machines"),
			Audience:        []string{},
			TokenExpiration: envInt("JWT_EXPIRATION_HOURS", 72),
		},
		Database: Database{
			DSN: envString("DATABASE_DSN", "file:machines.db?cache=shared&mode=rwc"),
		},
	}
}

func (a *App) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("missing required environment variable JWT_SECRET")
	}
	return nil
}

func (s Server) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	return a.TokenExpiration
}

func (a Auth) GetTokenHeader() string {
	return a.TokenHeader
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

func (d Database) GetDSN() string {
	return d.DSN
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
