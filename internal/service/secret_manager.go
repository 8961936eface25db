package service

import (
	"context"
	"fmt"

	"mentora/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
)

// SecretManagerService reads secrets from Google Secret Manager.
type SecretManagerService interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService creates a Secret Manager client for the given project.
func NewSecretManagerService(ctx context.Context, projectID string) (SecretManagerService, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is required")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

// GetSecret returns the latest version of the named secret.
func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// ResolveConfigSecrets fills sensitive config values from Secret Manager when
// their secret names are configured. Values already set through the
// environment win, so local setups never need a GCP project.
func ResolveConfigSecrets(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	type binding struct {
		secretName string
		dst        *string
	}
	bindings := []binding{
		{cfg.DBConnectionSecret, &cfg.DBConnectionString},
		{cfg.S3AccessKeySecret, &cfg.S3AccessKey},
		{cfg.S3SecretKeySecret, &cfg.S3SecretKey},
	}

	var wanted []binding
	for _, b := range bindings {
		if b.secretName != "" && *b.dst == "" {
			wanted = append(wanted, b)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	sm, err := NewSecretManagerService(ctx, cfg.GCPProjectID)
	if err != nil {
		return err
	}
	defer sm.Close()

	for _, b := range wanted {
		value, err := sm.GetSecret(ctx, b.secretName)
		if err != nil {
			return fmt.Errorf("failed to resolve secret %s: %w", b.secretName, err)
		}
		*b.dst = value
		logger.Info().Str("secret", b.secretName).Msg("Resolved config value from Secret Manager")
	}
	return nil
}
