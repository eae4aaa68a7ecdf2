package app_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecttutor/backend/internal/app"
	"projecttutor/backend/internal/testutils"
)

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	cfg := s.GetAppConfig()
	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer deps.Close(context.Background())

	assert.NotNil(t, deps.Documents)
	assert.NotNil(t, deps.NSQProducer)

	n, err := deps.VectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// Migrations ran: the settings row is seeded.
	var id int
	require.NoError(t, deps.DB.QueryRow("SELECT id FROM settings").Scan(&id))
	assert.Equal(t, 1, id)
}

func TestBootstrap_Resilience_WeaviateDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	cfg := s.GetAppConfig()
	cfg.WeaviateHost = "localhost:" + strconv.Itoa(59999)
	cfg.BootstrapRetryAttempts = 1

	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.True(t, strings.Contains(err.Error(), "weaviate schema error"), err.Error())
}
