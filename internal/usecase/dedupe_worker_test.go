package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/lumora/api/lead-insights-service/internal/config"
	jetstreammock "gitlab.com/lumora/api/lead-insights-service/internal/jetstream/mock"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	storagemock "gitlab.com/lumora/api/lead-insights-service/internal/storage/mock"
	"gitlab.com/lumora/api/lead-insights-service/internal/usecase"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
)

const workerWorkspaceID = "workspace-worker-test"

func workerTestConfig() config.DedupeWorkerPoolConfig {
	return config.DedupeWorkerPoolConfig{
		PoolSize:   2,
		QueueSize:  10,
		MaxBlock:   time.Second,
		ExpiryTime: time.Minute,
	}
}

func newTestDedupeWorker(t *testing.T) (*usecase.DedupeWorker, *storagemock.LeadRepoMock, *jetstreammock.ClientMock) {
	repo := new(storagemock.LeadRepoMock)
	publisher := new(jetstreammock.ClientMock)
	worker, err := usecase.NewDedupeWorker(workerTestConfig(), repo, publisher, "v1.leads.snapshot", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(worker.Stop)
	return worker, repo, publisher
}

func TestDedupeWorker_RunPass_NoDuplicates(t *testing.T) {
	worker, repo, _ := newTestDedupeWorker(t)
	ctx := workspace.WithID(context.Background(), workerWorkspaceID)

	leads := []model.Lead{
		{ID: "a", WorkspaceID: workerWorkspaceID, Phone: "+15550111111"},
		{ID: "b", WorkspaceID: workerWorkspaceID, Phone: "+15550122222"},
		{ID: "c", WorkspaceID: workerWorkspaceID}, // phoneless, never grouped
	}
	repo.On("FindAll", mock.Anything).Return(leads, nil).Once()

	result, err := worker.RunPass(ctx, workerWorkspaceID)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Merged)
	assert.Equal(t, 0, result.Removed)
	assert.Equal(t, 3, result.LeadCount)
	repo.AssertNotCalled(t, "BulkUpsert")
	repo.AssertNotCalled(t, "DeleteByIDs")
}

func TestDedupeWorker_RunPass_FoldsDuplicates(t *testing.T) {
	worker, repo, _ := newTestDedupeWorker(t)
	ctx := workspace.WithID(context.Background(), workerWorkspaceID)

	leads := []model.Lead{
		{ID: "late", WorkspaceID: workerWorkspaceID, Phone: "+1 (555) 011-1111", DateAdded: "2025-03-01"},
		{ID: "early", WorkspaceID: workerWorkspaceID, Phone: "15550111111", DateAdded: "2025-01-15"},
		{ID: "solo", WorkspaceID: workerWorkspaceID, Phone: "+15550199999", DateAdded: "2025-02-01"},
	}
	repo.On("FindAll", mock.Anything).Return(leads, nil).Once()
	repo.On("BulkUpsert", mock.Anything, mock.MatchedBy(func(canonicals []model.Lead) bool {
		return len(canonicals) == 1 && canonicals[0].ID == "early"
	})).Return(nil).Once()
	repo.On("DeleteByIDs", mock.Anything, []string{"late"}).Return(nil).Once()

	result, err := worker.RunPass(ctx, workerWorkspaceID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 2, result.LeadCount)
	repo.AssertExpectations(t)
}

func TestDedupeWorker_PublishSnapshot(t *testing.T) {
	worker, _, publisher := newTestDedupeWorker(t)
	ctx := workspace.WithID(context.Background(), workerWorkspaceID)

	publisher.On("Publish", "v1.leads.snapshot."+workerWorkspaceID, mock.MatchedBy(func(data []byte) bool {
		var payload model.SnapshotPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return false
		}
		return payload.WorkspaceID == workerWorkspaceID && payload.LeadCount == 7 && payload.ChangedAt != ""
	}), mock.Anything).Return(nil).Once()

	err := worker.PublishSnapshot(ctx, workerWorkspaceID, 7)

	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestDedupeWorker_SubmitTask_RunsPassAndPublishes(t *testing.T) {
	worker, repo, publisher := newTestDedupeWorker(t)

	done := make(chan struct{})
	repo.On("FindAll", mock.Anything).Return([]model.Lead{
		{ID: "a", WorkspaceID: workerWorkspaceID, Phone: "+15550111111"},
	}, nil).Once()
	publisher.On("Publish", "v1.leads.snapshot."+workerWorkspaceID, mock.Anything, mock.Anything).
		Return(nil).
		Once().
		Run(func(args mock.Arguments) { close(done) })

	err := worker.SubmitTask(usecase.DedupeTaskData{
		Ctx:         context.Background(),
		WorkspaceID: workerWorkspaceID,
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dedupe task did not complete in time")
	}
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
