// cmd/seeduser creates the first admin user, or resets its password.
// Usage: SEED_EMAIL=... SEED_PASSWORD=... go run ./cmd/seeduser
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
	"github.com/gonza-rom/jmr-stock-sub000/internal/config"
	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	email := strings.ToLower(envOr("SEED_EMAIL", "admin@jmr.local"))
	password := envOr("SEED_PASSWORD", "admin1234")
	nombre := envOr("SEED_NOMBRE", "Administrador")

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	ctx := context.Background()
	repo := repository.NewUsuarioRepository(db)
	u, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = &model.Usuario{Nombre: nombre, Email: email, PasswordHash: hash, Rol: model.RolAdmin, Activo: true}
		err = repo.Create(ctx, u)
	case err == nil:
		u.PasswordHash = hash
		u.Rol = model.RolAdmin
		u.Activo = true
		err = repo.Update(ctx, u)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed user")
	}
	log.Info().Str("email", email).Msg("admin user ready")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
