package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"reelgen/internal/domain"
)

type MockJobStore struct {
	mock.Mock
}

func (m *MockJobStore) Get(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoJob), args.Error(1)
}

func (m *MockJobStore) GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error) {
	args := m.Called(ctx, jobID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoJob), args.Error(1)
}

func (m *MockJobStore) Claim(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoJob), args.Error(1)
}

func (m *MockJobStore) SaveScript(ctx context.Context, jobID string, scenes []domain.Scene, usage *domain.Usage) error {
	return m.Called(ctx, jobID, scenes, usage).Error(0)
}

func (m *MockJobStore) SaveAssets(ctx context.Context, jobID string, scenes []domain.Scene) error {
	return m.Called(ctx, jobID, scenes).Error(0)
}

func (m *MockJobStore) Complete(ctx context.Context, jobID, artifactRef string) error {
	return m.Called(ctx, jobID, artifactRef).Error(0)
}

func (m *MockJobStore) Fail(ctx context.Context, jobID string, failure domain.Failure) error {
	return m.Called(ctx, jobID, failure).Error(0)
}

func (m *MockJobStore) ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]string), args.Error(1)
}

type MockScriptWriter struct {
	mock.Mock
}

func (m *MockScriptWriter) WriteScript(ctx context.Context, req domain.ScriptRequest) (*domain.Script, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Script), args.Error(1)
}

type MockImageRenderer struct {
	mock.Mock
}

func (m *MockImageRenderer) RenderImage(ctx context.Context, req domain.ImageRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockAssembler struct {
	mock.Mock
}

func (m *MockAssembler) Assemble(ctx context.Context, job *domain.VideoJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}
