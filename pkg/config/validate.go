package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for consistency. Struct tags cover
// the field-level rules; cross-field rules are checked explicitly.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	for _, iface := range cfg.SSH.Interfaces {
		if net.ParseIP(iface) == nil {
			return fmt.Errorf("ssh: interface %q is not a valid IP address", iface)
		}
	}

	if cfg.SSH.RejectAllAuth && cfg.SSH.EnableSFTP {
		return fmt.Errorf("ssh: enable_sftp has no effect when reject_all_auth is set")
	}

	return nil
}
