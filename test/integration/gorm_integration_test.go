package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-mangagen-be/internal/repository/specification"
	"ai-mangagen-be/internal/repository/unitofwork"
	"ai-mangagen-be/pkg/database"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.PipelineSessionRepository())
	assert.NotNil(t, uow.PhaseRecordRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.PipelineSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Session Round Trip", func(t *testing.T) {
		ctx := context.Background()
		uow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		session := pipeline.NewSession(uuid.New(), "itest@example.com", "An integration test premise long enough to pass validation.")
		assert.NoError(t, uow.PipelineSessionRepository().Upsert(ctx, session))

		found, err := uow.PipelineSessionRepository().FindOne(ctx, specification.ByID{ID: session.ID})
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, session.InputText, found.InputText)
		}
	})
}
