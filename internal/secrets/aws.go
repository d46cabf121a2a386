package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSResolver reads secrets from AWS Secrets Manager under Prefix+id.
type AWSResolver struct {
	client secretsAPI
	prefix string
}

// NewAWSResolver loads the default AWS config for region.
func NewAWSResolver(ctx context.Context, region, prefix string) (*AWSResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWSResolver{client: secretsmanager.NewFromConfig(cfg), prefix: prefix}, nil
}

func (r *AWSResolver) GetSecret(ctx context.Context, id string) (string, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.prefix + id),
	})
	if err != nil {
		var nf *smtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString != nil && *out.SecretString != "" {
		return *out.SecretString, nil
	}
	if len(out.SecretBinary) > 0 {
		return string(out.SecretBinary), nil
	}
	return "", ErrNotFound
}

var _ Resolver = (*AWSResolver)(nil)
