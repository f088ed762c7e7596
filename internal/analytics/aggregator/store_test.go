package aggregator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/postgres"
)

// skipIfNoPostgres skips the test when Postgres is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	db, err := postgres.New(config.PostgresConfig{
		Host: host, Port: 5432, Database: "keywords_test",
		User: "postgres", Password: "postgres", SSLMode: "disable",
	})
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background(), Schema))
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore(skipIfNoPostgres(t))
	ctx := context.Background()

	want := analytics.AggregatedStats{
		TotalExtractions: 12,
		JobsFailed:       1,
		TopKeywords:      []analytics.NamedCount{{Name: "model", Count: 5}},
	}
	require.NoError(t, s.SaveSnapshot(ctx, want))

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.TotalExtractions, got.TotalExtractions)
	assert.Equal(t, want.TopKeywords, got.TopKeywords)

	_, err = s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
}
