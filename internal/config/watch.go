package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchClinic reloads clinic.yaml on change and calls onUpdate with the latest config.
// It performs an initial load before entering the watch loop. An invalid edit is
// logged and the previous configuration stays in effect.
func WatchClinic(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*ClinicConfig)) error {
	if path == "" {
		path = "configs/clinic.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "config").Str("path", path).Logger()
	}

	cfg, err := LoadClinic(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadClinic(path)
				if err != nil {
					log.Error().Err(err).Msg("clinic config reload failed")
					continue
				}
				log.Info().Str("summary", cfg.String()).Msg("clinic config reloaded")
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
