package nino

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// SecretReader reads secret strings by id.
type SecretReader interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// AWSSecretReader reads secrets from AWS Secrets Manager through a local cache, so rotated
// values are picked up without a restart.
type AWSSecretReader struct {
	cache *secretcache.Cache
}

// NewAWSSecretReader creates a reader with its own Secrets Manager client.
func NewAWSSecretReader(cfg aws.Config) (*AWSSecretReader, error) {
	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = secretsmanager.NewFromConfig(cfg)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secret cache")
	}

	return &AWSSecretReader{cache: cache}, nil
}

func (r *AWSSecretReader) GetSecretString(ctx context.Context, secretID string) (string, error) {
	value, err := r.cache.GetSecretStringWithContext(ctx, secretID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get secret %q", secretID)
	}

	return value, nil
}

// secretFromReader reads secretID and, when jsonPath is set, the gjson path inside it.
func secretFromReader(ctx context.Context, reader SecretReader, secretID, jsonPath string) (string, error) {
	value, err := reader.GetSecretString(ctx, secretID)
	if err != nil || jsonPath == "" {
		return value, err
	}

	field := gjson.Get(value, jsonPath)
	if !field.Exists() {
		return "", errors.Errorf("secret path %q not found in secret %q", jsonPath, secretID)
	}

	return field.String(), nil
}
