// Package vault resolves AI provider API keys from HashiCorp Vault, falling
// back to configured values when Vault is disabled or unreachable.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/config"
)

// AIKeys holds the decision engine credentials.
type AIKeys struct {
	AnthropicAPIKey string `json:"anthropic_api_key"`
	OpenAIAPIKey    string `json:"openai_api_key"`
}

// Client wraps the HashiCorp Vault client.
type Client struct {
	client *api.Client
	config config.VaultConfig
	logger zerolog.Logger
}

// NewClient creates a new Vault client. Disabled configuration yields a
// client whose lookups always fall back.
func NewClient(cfg config.VaultConfig, logger zerolog.Logger) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg, logger: logger}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg, logger: logger}, nil
}

// ResolveAIKeys returns the AI credentials: Vault values when available,
// otherwise the fallback values from configuration.
func (c *Client) ResolveAIKeys(ctx context.Context, fallback AIKeys) AIKeys {
	if !c.config.Enabled {
		return fallback
	}

	secret, err := c.client.KVv2(c.config.MountPath).Get(ctx, c.config.SecretPath)
	if err != nil {
		c.logger.Warn().Err(err).Msg("vault lookup failed, using configured AI keys")
		return fallback
	}

	keys := fallback
	if v, ok := secret.Data["anthropic_api_key"].(string); ok && v != "" {
		keys.AnthropicAPIKey = v
	}
	if v, ok := secret.Data["openai_api_key"].(string); ok && v != "" {
		keys.OpenAIAPIKey = v
	}

	return keys
}

// StoreAIKeys writes the AI credentials to Vault.
func (c *Client) StoreAIKeys(ctx context.Context, keys AIKeys) error {
	if !c.config.Enabled {
		return fmt.Errorf("vault is not enabled")
	}

	data := map[string]interface{}{
		"anthropic_api_key": keys.AnthropicAPIKey,
		"openai_api_key":    keys.OpenAIAPIKey,
	}

	if _, err := c.client.KVv2(c.config.MountPath).Put(ctx, c.config.SecretPath, data); err != nil {
		return fmt.Errorf("failed to store AI keys: %w", err)
	}
	return nil
}
