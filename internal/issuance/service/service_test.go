package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"vellum/internal/issuance/models"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/sentinel"
)

func storedRecord() *models.IssuanceRecord {
	return &models.IssuanceRecord{
		IssuanceID:  uuid.NewString(),
		Recipient:   models.Recipient{Name: "Ann Lee", Email: "ann@x.com", Program: "Data Engineering"},
		IssuedAt:    time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
		ArtifactURL: "https://objects.example.com/certificates/a.png",
		ContentType: "image/png",
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored record", func(t *testing.T) {
		svc, m := newTestService(t)
		record := storedRecord()
		m.records.EXPECT().FindByID(gomock.Any(), record.IssuanceID).Return(record, nil)

		got, err := svc.Get(ctx, record.IssuanceID)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("unknown id maps to not found", func(t *testing.T) {
		svc, m := newTestService(t)
		m.records.EXPECT().FindByID(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("issuance x: %w", sentinel.ErrNotFound))

		_, err := svc.Get(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("blank id is rejected without a store call", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Get(ctx, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("store fault maps to internal", func(t *testing.T) {
		svc, m := newTestService(t)
		m.records.EXPECT().FindByID(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := svc.Get(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func TestListClampsPagination(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t)

	m.records.EXPECT().List(gomock.Any(), defaultPageSize, 0).Return(nil, 0, nil)
	_, _, err := svc.List(ctx, 0, -3)
	require.NoError(t, err)

	m.records.EXPECT().List(gomock.Any(), maxPageSize, 10).Return(nil, 0, nil)
	_, _, err = svc.List(ctx, 5000, 10)
	require.NoError(t, err)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("trims the query", func(t *testing.T) {
		svc, m := newTestService(t)
		record := storedRecord()
		m.records.EXPECT().Search(gomock.Any(), "ann").Return([]*models.IssuanceRecord{record}, nil)

		records, err := svc.Search(ctx, "  ann  ")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, record.IssuanceID, records[0].IssuanceID)
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Search(ctx, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t)

	m.records.EXPECT().Stats(gomock.Any()).Return(models.IssuanceStats{
		TotalCertificates: 3,
		ByProgram:         map[string]int{"Data Engineering": 2, "General Program": 1},
	}, nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCertificates)
	assert.Equal(t, 2, stats.ByProgram["Data Engineering"])
}
