package config

import (
	"context"
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault/api"

	"skillscope/internal/errors"
)

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Address       string        `mapstructure:"address"`
	Token         string        `mapstructure:"token"`
	MountPath     string        `mapstructure:"mountPath"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retryAttempts"`
	Secrets       VaultSecrets  `mapstructure:"secrets"`
}

// VaultSecrets names the KV v2 locations of the credentials skillscope
// loads at startup.
type VaultSecrets struct {
	AIKeyPath      string `mapstructure:"aiKeyPath"`
	AIKeyField     string `mapstructure:"aiKeyField"`
	SearchKeyPath  string `mapstructure:"searchKeyPath"`
	SearchKeyField string `mapstructure:"searchKeyField"`
}

// VaultClient wraps the Vault API client for secret retrieval.
type VaultClient struct {
	client *vault.Client
	config *VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client and verifies connectivity.
func NewVaultClient(cfg *VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	vaultConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	vaultConfig.Timeout = cfg.Timeout

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"failed to create vault client", err)
	}

	token := cfg.Token
	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}
	if token == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"vault token is required (set vault.token or VAULT_TOKEN)", nil)
	}
	client.SetToken(token)

	vc := &VaultClient{client: client, config: cfg, logger: logger}
	if err := vc.testConnection(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("vault client initialized", "address", vaultConfig.Address, "mount", cfg.MountPath)
	return vc, nil
}

func (vc *VaultClient) testConnection(ctx context.Context) error {
	health, err := vc.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			"failed to connect to vault", err)
	}
	if health.Sealed {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"vault is sealed", nil)
	}
	return nil
}

// GetStringSecret retrieves a single string field from a KV v2 secret.
func (vc *VaultClient) GetStringSecret(ctx context.Context, path, field string) (string, error) {
	var lastErr error
	attempts := vc.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		secret, err := vc.client.KVv2(vc.config.MountPath).Get(ctx, path)
		if err != nil {
			lastErr = err
			vc.logger.Warn("vault secret read failed", "path", path, "attempt", attempt+1, "error", err)
			continue
		}

		value, ok := secret.Data[field].(string)
		if !ok {
			return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("vault secret %s has no string field %q", path, field), nil)
		}
		return value, nil
	}

	return "", errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
		fmt.Sprintf("failed to read vault secret %s after %d attempts", path, attempts), lastErr)
}

// ApplyVaultSecrets loads credentials from Vault into the config. Vault
// values take precedence over file and environment values.
func (c *Config) ApplyVaultSecrets(ctx context.Context, logger *errors.Logger) error {
	if !c.Vault.Enabled {
		return nil
	}

	vc, err := NewVaultClient(&c.Vault, logger)
	if err != nil {
		return err
	}

	if c.Vault.Secrets.AIKeyPath != "" {
		key, err := vc.GetStringSecret(ctx, c.Vault.Secrets.AIKeyPath, c.Vault.Secrets.AIKeyField)
		if err != nil {
			return err
		}
		c.AI.APIKey = key
		logger.Info("loaded AI credential from vault", "path", c.Vault.Secrets.AIKeyPath)
	}

	if c.Search.Enabled && c.Vault.Secrets.SearchKeyPath != "" {
		key, err := vc.GetStringSecret(ctx, c.Vault.Secrets.SearchKeyPath, c.Vault.Secrets.SearchKeyField)
		if err != nil {
			return err
		}
		c.Search.APIKey = key
		logger.Info("loaded search credential from vault", "path", c.Vault.Secrets.SearchKeyPath)
	}

	return nil
}
