package lifecycle

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"video-platform/internal/database"
	"video-platform/internal/events"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateVideo(ctx context.Context, v *database.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRepository) GetVideo(ctx context.Context, id string) (*database.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Video), args.Error(1)
}

func (m *MockRepository) GetVideoStatus(ctx context.Context, id string) (database.VideoStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.VideoStatus), args.Error(1)
}

func (m *MockRepository) TransitionStatus(ctx context.Context, id string, to database.VideoStatus, transcodedKey, detail string) (bool, error) {
	args := m.Called(ctx, id, to, transcodedKey, detail)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ReplaceThumbnail(ctx context.Context, id, thumbnailKey string) (string, error) {
	args := m.Called(ctx, id, thumbnailKey)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) UpdateVideoDetails(ctx context.Context, id string, details database.VideoDetails) (*database.Video, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Video), args.Error(1)
}

func (m *MockRepository) ListVideosByStatus(ctx context.Context, status database.VideoStatus) ([]*database.Video, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.Video), args.Error(1)
}

func (m *MockRepository) DeleteVideo(ctx context.Context, id string) (*database.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Video), args.Error(1)
}

type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Transcode(ctx context.Context, input, output string) error {
	args := m.Called(ctx, input, output)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	args := m.Called(ctx, key, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Path(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, event events.StatusEvent) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}
