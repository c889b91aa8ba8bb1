package impl

import (
	"context"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/usecase"

	"github.com/google/uuid"
)

// Hand-written fakes with function fields: tests wire only the calls they
// expect, anything else nil-panics and fails the test loudly.

type fakeDeviceRepo struct {
	upsert           func(ctx context.Context, device *entity.Device) error
	findByID         func(ctx context.Context, id int64) (*entity.Device, error)
	findByUUID       func(ctx context.Context, id uuid.UUID) (*entity.Device, error)
	list             func(ctx context.Context) ([]*entity.Device, error)
	listIDs          func(ctx context.Context) ([]int64, error)
	delete           func(ctx context.Context, id int64) error
	applyPings       func(ctx context.Context, updates []entity.PingUpdate) error
	markOfflineSince func(ctx context.Context, cutoff time.Time) (int64, error)
	recordAppVersion func(ctx context.Context, id int64, version string, clear bool) error
	setUpdateReq     func(ctx context.Context, id int64, requested bool) error
}

func (f *fakeDeviceRepo) Upsert(ctx context.Context, device *entity.Device) error {
	return f.upsert(ctx, device)
}

func (f *fakeDeviceRepo) FindByID(ctx context.Context, id int64) (*entity.Device, error) {
	return f.findByID(ctx, id)
}

func (f *fakeDeviceRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.Device, error) {
	return f.findByUUID(ctx, id)
}

func (f *fakeDeviceRepo) List(ctx context.Context) ([]*entity.Device, error) {
	return f.list(ctx)
}

func (f *fakeDeviceRepo) ListIDs(ctx context.Context) ([]int64, error) {
	return f.listIDs(ctx)
}

func (f *fakeDeviceRepo) Delete(ctx context.Context, id int64) error {
	return f.delete(ctx, id)
}

func (f *fakeDeviceRepo) ApplyPings(ctx context.Context, updates []entity.PingUpdate) error {
	return f.applyPings(ctx, updates)
}

func (f *fakeDeviceRepo) MarkOfflineSince(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.markOfflineSince(ctx, cutoff)
}

func (f *fakeDeviceRepo) RecordAppVersion(ctx context.Context, id int64, version string, clear bool) error {
	return f.recordAppVersion(ctx, id, version, clear)
}

func (f *fakeDeviceRepo) SetUpdateRequested(ctx context.Context, id int64, requested bool) error {
	return f.setUpdateReq(ctx, id, requested)
}

type fakeScheduleRepo struct {
	create       func(ctx context.Context, schedule *entity.Schedule) error
	update       func(ctx context.Context, schedule *entity.Schedule) error
	delete       func(ctx context.Context, id int64) error
	findByID     func(ctx context.Context, id int64) (*entity.Schedule, error)
	findByDevice func(ctx context.Context, deviceID int64) ([]*entity.Schedule, error)
}

func (f *fakeScheduleRepo) Create(ctx context.Context, schedule *entity.Schedule) error {
	return f.create(ctx, schedule)
}

func (f *fakeScheduleRepo) Update(ctx context.Context, schedule *entity.Schedule) error {
	return f.update(ctx, schedule)
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, id int64) error {
	return f.delete(ctx, id)
}

func (f *fakeScheduleRepo) FindByID(ctx context.Context, id int64) (*entity.Schedule, error) {
	return f.findByID(ctx, id)
}

func (f *fakeScheduleRepo) FindByDevice(ctx context.Context, deviceID int64) ([]*entity.Schedule, error) {
	return f.findByDevice(ctx, deviceID)
}

type fakePlaylistRepo struct {
	create        func(ctx context.Context, playlist *entity.Playlist) error
	rename        func(ctx context.Context, id int64, name string) error
	replaceItems  func(ctx context.Context, id int64, items []entity.PlaylistItem) error
	delete        func(ctx context.Context, id int64) error
	findByID      func(ctx context.Context, id int64) (*entity.Playlist, error)
	deviceIDsUsed func(ctx context.Context, playlistID int64) ([]int64, error)
}

func (f *fakePlaylistRepo) Create(ctx context.Context, playlist *entity.Playlist) error {
	return f.create(ctx, playlist)
}

func (f *fakePlaylistRepo) Rename(ctx context.Context, id int64, name string) error {
	return f.rename(ctx, id, name)
}

func (f *fakePlaylistRepo) ReplaceItems(ctx context.Context, id int64, items []entity.PlaylistItem) error {
	return f.replaceItems(ctx, id, items)
}

func (f *fakePlaylistRepo) Delete(ctx context.Context, id int64) error {
	return f.delete(ctx, id)
}

func (f *fakePlaylistRepo) FindByID(ctx context.Context, id int64) (*entity.Playlist, error) {
	return f.findByID(ctx, id)
}

func (f *fakePlaylistRepo) DeviceIDsUsing(ctx context.Context, playlistID int64) ([]int64, error) {
	return f.deviceIDsUsed(ctx, playlistID)
}

type fakeCommandRepo struct {
	enqueue          func(ctx context.Context, command *entity.Command) error
	popOldestPending func(ctx context.Context, deviceID int64) (*entity.Command, error)
}

func (f *fakeCommandRepo) Enqueue(ctx context.Context, command *entity.Command) error {
	return f.enqueue(ctx, command)
}

func (f *fakeCommandRepo) PopOldestPending(ctx context.Context, deviceID int64) (*entity.Command, error) {
	return f.popOldestPending(ctx, deviceID)
}

// fakeCache is an unbounded map cache recording invalidations.
type fakeCache struct {
	entries        map[int64]*entity.CacheEntry
	invalidated    []int64
	invalidatedAll bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]*entity.CacheEntry)}
}

func (f *fakeCache) Get(deviceID int64) (*entity.CacheEntry, bool) {
	entry, ok := f.entries[deviceID]

	return entry, ok
}

func (f *fakeCache) Put(deviceID int64, entry *entity.CacheEntry) {
	f.entries[deviceID] = entry
}

func (f *fakeCache) Invalidate(deviceID int64) {
	delete(f.entries, deviceID)
	f.invalidated = append(f.invalidated, deviceID)
}

func (f *fakeCache) InvalidateAll() {
	f.entries = make(map[int64]*entity.CacheEntry)
	f.invalidatedAll = true
}

// fakeResolver counts invocations so tests can assert the cache
// short-circuit.
type fakeResolver struct {
	resolution *usecase.Resolution
	err        error
	calls      int
}

func (f *fakeResolver) Resolve(_ context.Context, _ int64, _ time.Time) (*usecase.Resolution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	return f.resolution, nil
}

// fakePingQueue records enqueued updates.
type fakePingQueue struct {
	enqueued []entity.PingUpdate
	flushErr error
	flushes  int
}

func (f *fakePingQueue) Enqueue(update entity.PingUpdate) {
	f.enqueued = append(f.enqueued, update)
}

func (f *fakePingQueue) Flush(_ context.Context) error {
	f.flushes++

	return f.flushErr
}
