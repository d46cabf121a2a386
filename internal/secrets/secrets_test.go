package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

type countingResolver struct {
	calls map[string]int
	value string
	err   error
}

func (c *countingResolver) GetSecret(ctx context.Context, id string) (string, error) {
	c.calls[id]++
	return c.value, c.err
}

func TestEnvResolver(t *testing.T) {
	t.Setenv("FD_OPENAI_API_KEY", " sk-test ")
	r := EnvResolver{Prefix: "FD_"}

	got, err := r.GetSecret(context.Background(), "OPENAI_API_KEY")
	if err != nil || got != "sk-test" {
		t.Fatalf("GetSecret = %q, %v", got, err)
	}
	if _, err := r.GetSecret(context.Background(), "MISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheMemoizesSuccess(t *testing.T) {
	next := &countingResolver{calls: map[string]int{}, value: "v"}
	c := NewCache(next)
	for i := 0; i < 3; i++ {
		if v, err := c.GetSecret(context.Background(), "K"); err != nil || v != "v" {
			t.Fatalf("GetSecret = %q, %v", v, err)
		}
	}
	if next.calls["K"] != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls["K"])
	}
}

func TestCacheDoesNotMemoizeErrors(t *testing.T) {
	next := &countingResolver{calls: map[string]int{}, err: errors.New("throttled")}
	c := NewCache(next)
	_, _ = c.GetSecret(context.Background(), "K")
	_, _ = c.GetSecret(context.Background(), "K")
	if next.calls["K"] != 2 {
		t.Fatalf("expected errors to be retried, got %d calls", next.calls["K"])
	}
}

func TestOptional(t *testing.T) {
	v, err := Optional(context.Background(), EnvResolver{Prefix: "FD_TEST_NOPE_"}, "X")
	if err != nil || v != "" {
		t.Fatalf("Optional = %q, %v", v, err)
	}
}

type fakeSecretsManager struct {
	values map[string]string
	lastID string
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.lastID = aws.ToString(params.SecretId)
	v, ok := f.values[f.lastID]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("nope")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestAWSResolver(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{"fraud-digest/GMAIL_REFRESH_TOKEN": "tok"}}
	r := &AWSResolver{client: fake, prefix: "fraud-digest/"}

	got, err := r.GetSecret(context.Background(), "GMAIL_REFRESH_TOKEN")
	if err != nil || got != "tok" {
		t.Fatalf("GetSecret = %q, %v", got, err)
	}
	if _, err := r.GetSecret(context.Background(), "OTHER"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
