package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/hugolhafner/avro-enricher/logger"
)

var ErrEmptySecret = errors.New("secrets: secret has no value")

// Fetcher returns the raw payload of a named secret.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SecretsManagerAPI captures the Secrets Manager call used by SecretsManager.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var _ Fetcher = (*SecretsManager)(nil)

type SecretsManager struct {
	api    SecretsManagerAPI
	logger logger.Logger
}

func NewSecretsManager(cfg aws.Config, l logger.Logger) *SecretsManager {
	return NewSecretsManagerWithAPI(secretsmanager.NewFromConfig(cfg), l)
}

func NewSecretsManagerWithAPI(api SecretsManagerAPI, l logger.Logger) *SecretsManager {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &SecretsManager{api: api, logger: l}
}

// Fetch reads the current version of name. SecretString is preferred; binary
// secrets are returned as stored.
func (s *SecretsManager) Fetch(ctx context.Context, name string) ([]byte, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.logger.Error("Secret fetch failed", "secret", name, "code", apiErr.ErrorCode())
		}
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}

	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}

	return nil, fmt.Errorf("get secret %s: %w", name, ErrEmptySecret)
}

// FetchJSON fetches name and decodes its payload into T.
func FetchJSON[T any](ctx context.Context, f Fetcher, name string) (T, error) {
	var out T

	data, err := f.Fetch(ctx, name)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode secret %s: %w", name, err)
	}

	return out, nil
}
