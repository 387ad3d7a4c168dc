package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	value string
	err   error
	asked string
}

func (f *fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	f.asked = name
	return f.value, f.err
}

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "legerity")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := fromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, 3, cfg.CheckoutMaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.CheckoutRetryBackoff)
	assert.Equal(t, "order.placed", cfg.OrderEventsTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHECKOUT_MAX_RETRIES", "7")
	t.Setenv("CHECKOUT_RETRY_BACKOFF", "1s")
	t.Setenv("TRUST_GATEWAY_HEADER", "true")
	t.Setenv("IDEMPOTENCY_TTL", "not-a-duration")

	cfg := fromEnv()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 7, cfg.CheckoutMaxRetries)
	assert.Equal(t, time.Second, cfg.CheckoutRetryBackoff)
	assert.True(t, cfg.TrustGatewayHeader)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestValidate(t *testing.T) {
	setRequiredEnv(t)

	cfg := fromEnv()
	cfg.PostgresPassword = ""
	assert.EqualError(t, cfg.Validate(), "database config incomplete")

	cfg = fromEnv()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())
	cfg.TrustGatewayHeader = true
	assert.NoError(t, cfg.Validate())

	cfg.CheckoutMaxRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestApplySecrets_OverridesCredentials(t *testing.T) {
	setRequiredEnv(t)
	cfg := fromEnv()
	sm := &fakeSecrets{value: `{"POSTGRES_USER":"prod","POSTGRES_PASSWORD":"p@ss","POSTGRES_HOST":""}`}

	require.NoError(t, applySecrets(context.Background(), cfg, sm))

	assert.Equal(t, DBSecretName, sm.asked)
	assert.Equal(t, "prod", cfg.PostgresUser)
	assert.Equal(t, "p@ss", cfg.PostgresPassword)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "legerity", cfg.PostgresDB)
}

func TestApplySecrets_Errors(t *testing.T) {
	cfg := fromEnv()

	err := applySecrets(context.Background(), cfg, &fakeSecrets{err: errors.New("denied")})
	assert.ErrorContains(t, err, "denied")

	err = applySecrets(context.Background(), cfg, &fakeSecrets{value: "{"})
	assert.ErrorContains(t, err, "decode")

	assert.NoError(t, applySecrets(context.Background(), cfg, &fakeSecrets{}))
}

func TestPostgresDSN(t *testing.T) {
	setRequiredEnv(t)
	cfg := fromEnv()
	assert.Equal(t,
		"host=localhost user=shop password=secret dbname=legerity port=5432 sslmode=disable TimeZone=UTC",
		cfg.PostgresDSN())
}
