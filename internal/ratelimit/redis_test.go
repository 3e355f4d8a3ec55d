package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testTimeout = 10 * time.Second

// TestMain поднимает Redis в контейнере один раз на пакет, если задан GO_TEST_INTEGRATION.
// Адрес прокидывается в ENV REDIS_URL.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("REDIS_URL", fmt.Sprintf("redis://%s:%s/0", host, port.Port()))

	code := m.Run()

	_ = redisC.Terminate(context.Background())
	os.Exit(code)
}

func mustNewRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run redis tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	// Отдельный префикс на тест, чтобы ключи не пересекались.
	st, err := NewRedisStore(ctx, os.Getenv("REDIS_URL"), "test:"+uuid.NewString()+":")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestRedisStore_FixedWindow(t *testing.T) {
	st := mustNewRedisStore(t)
	l := NewLimiter(st)
	p := Policy{Name: "contact", Window: 2 * time.Second, Max: 3}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	for i := 0; i < 3; i++ {
		d, err := l.Check(ctx, p, "1.2.3.4", "/api/contact")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := l.Check(ctx, p, "1.2.3.4", "/api/contact")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.InDelta(t, 2, d.RetryAfter, 1)

	other, err := l.Check(ctx, p, "5.6.7.8", "/api/contact")
	require.NoError(t, err)
	require.True(t, other.Allowed)

	time.Sleep(2100 * time.Millisecond)

	d, err = l.Check(ctx, p, "1.2.3.4", "/api/contact")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 2, d.Remaining)
}
