package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"academy-portal/internal/config"
)

// ciphertextPrefix marks values produced by the transit engine
const ciphertextPrefix = "vault:"

// Client seals short text values with Vault's transit engine
type Client struct {
	client       *api.Client
	transitMount string
	keyName      string
}

// NewClient creates a Vault client, mounting the transit engine and the
// encryption key when they do not exist yet
func NewClient(ctx context.Context, cfg *config.VaultConfig) (*Client, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	c := &Client{
		client:       client,
		transitMount: cfg.TransitMount,
		keyName:      cfg.KeyName,
	}
	if err := c.initTransitEngine(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize transit engine: %w", err)
	}
	if err := c.ensureKey(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) initTransitEngine(ctx context.Context) error {
	mounts, err := c.client.Sys().ListMountsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mounts: %w", err)
	}
	if _, exists := mounts[c.transitMount+"/"]; exists {
		return nil
	}

	err = c.client.Sys().MountWithContext(ctx, c.transitMount, &api.MountInput{
		Type:        "transit",
		Description: "Transit encryption for personnel records",
	})
	if err != nil {
		return fmt.Errorf("failed to mount transit engine: %w", err)
	}
	return nil
}

// ensureKey creates the aes256-gcm96 key; writing an existing key is a no-op
func (c *Client) ensureKey(ctx context.Context) error {
	path := fmt.Sprintf("%s/keys/%s", c.transitMount, c.keyName)
	_, err := c.client.Logical().WriteWithContext(ctx, path, map[string]any{
		"type":       "aes256-gcm96",
		"exportable": false,
	})
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", c.keyName, err)
	}
	return nil
}

// Seal encrypts plaintext and returns the transit ciphertext
func (c *Client) Seal(ctx context.Context, plaintext string) (string, error) {
	path := fmt.Sprintf("%s/encrypt/%s", c.transitMount, c.keyName)
	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]any{
		"plaintext": base64.StdEncoding.EncodeToString([]byte(plaintext)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}

	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return "", fmt.Errorf("invalid ciphertext response")
	}
	return ciphertext, nil
}

// Open decrypts a value produced by Seal. Values without the transit prefix
// were stored before sealing was enabled and are returned unchanged.
func (c *Client) Open(ctx context.Context, value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	path := fmt.Sprintf("%s/decrypt/%s", c.transitMount, c.keyName)
	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]any{
		"ciphertext": value,
	})
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return "", fmt.Errorf("invalid plaintext response")
	}
	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode plaintext: %w", err)
	}
	return string(plaintext), nil
}

// Health checks Vault health status
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

// IsSealed reports whether value looks like transit ciphertext
func IsSealed(value string) bool {
	return strings.HasPrefix(value, ciphertextPrefix)
}
