package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmuriuki/biz_capture/staging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attachedInterview struct {
	kind     string
	videoKey *string
	audioKey *string
}

type fakeAPI struct {
	mu          sync.Mutex
	draftID     uuid.UUID
	createCalls int
	patchCalls  int
	photoCalls  [][]string
	interviews  []attachedInterview

	// When set, CreateDraft blocks until the channel is closed.
	block chan struct{}
}

func (f *fakeAPI) CreateDraft(ctx context.Context, form staging.InfoForm) (uuid.UUID, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.draftID == uuid.Nil {
		f.draftID = uuid.New()
	}
	return f.draftID, nil
}

func (f *fakeAPI) PatchInfo(ctx context.Context, id uuid.UUID, form staging.InfoForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchCalls++
	return nil
}

func (f *fakeAPI) AttachPhotos(ctx context.Context, id uuid.UUID, storageKeys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photoCalls = append(f.photoCalls, append([]string{}, storageKeys...))
	return nil
}

func (f *fakeAPI) AttachInterview(ctx context.Context, id uuid.UUID, kind string, videoKey, audioKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interviews = append(f.interviews, attachedInterview{kind: kind, videoKey: videoKey, audioKey: audioKey})
	return nil
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.patchCalls + len(f.photoCalls) + len(f.interviews)
}

type fakeBlobs struct {
	mu        sync.Mutex
	failPaths map[string]bool
	uploaded  []string
}

func (f *fakeBlobs) RequestUploadTarget(ctx context.Context, folder, filename, contentType string) (UploadTarget, error) {
	return UploadTarget{
		UploadURL:  "https://blobs.test/upload",
		StorageKey: folder + "/" + filename,
	}, nil
}

func (f *fakeBlobs) Upload(ctx context.Context, target UploadTarget, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPaths[localPath] {
		return errors.New("connection reset")
	}
	f.uploaded = append(f.uploaded, localPath)
	return nil
}

func newTestReconciler(t *testing.T, api SubmissionAPI, blobs BlobStore, opts ...Option) (*Reconciler, *staging.Store) {
	t.Helper()
	store, err := staging.New(t.TempDir())
	require.NoError(t, err)
	return New(store, api, blobs, opts...), store
}

func TestRunSyncsAllPhasesInOrder(t *testing.T) {
	api := &fakeAPI{}
	blobs := &fakeBlobs{}
	r, store := newTestReconciler(t, api, blobs)

	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Mama Njeri Grocers"}))
	require.NoError(t, store.StagePhotos([]string{"/sdcard/a.jpg", "/sdcard/b.jpg", "/sdcard/c.jpg"}, nil))
	require.NoError(t, store.StageInterview("/sdcard/interview.m4a", nil, "audio"))
	require.NoError(t, store.SetPointer(staging.DraftPointer{State: staging.PendingCreation}))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.InfoSynced)
	assert.Equal(t, 3, summary.PhotosUploaded)
	assert.Equal(t, 0, summary.PhotosFailed)
	assert.True(t, summary.InterviewSynced)

	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, 0, api.patchCalls)
	require.Len(t, api.photoCalls, 1)
	assert.Equal(t, []string{"business_photos/a.jpg", "business_photos/b.jpg", "business_photos/c.jpg"}, api.photoCalls[0])
	require.Len(t, api.interviews, 1)
	assert.Equal(t, "audio", api.interviews[0].kind)
	assert.Nil(t, api.interviews[0].videoKey)
	require.NotNil(t, api.interviews[0].audioKey)
	assert.Equal(t, "interviews/interview.m4a", *api.interviews[0].audioKey)

	// The pointer now references the created draft and the staged records
	// are gone.
	ptr := store.Pointer()
	assert.Equal(t, staging.Remote, ptr.State)
	assert.Equal(t, api.draftID, ptr.SubmissionID)

	info, err := store.LoadInfo()
	require.NoError(t, err)
	assert.Nil(t, info)
	photos, err := store.LoadPhotos()
	require.NoError(t, err)
	assert.Nil(t, photos)
	interview, err := store.LoadInterview()
	require.NoError(t, err)
	assert.Nil(t, interview)
}

func TestRunPatchesExistingRemoteDraft(t *testing.T) {
	api := &fakeAPI{draftID: uuid.New()}
	r, store := newTestReconciler(t, api, &fakeBlobs{})

	require.NoError(t, store.SetPointer(staging.RemotePointer(api.draftID)))
	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Updated name"}))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.InfoSynced)
	assert.Equal(t, 0, api.createCalls)
	assert.Equal(t, 1, api.patchCalls)
}

func TestSecondRunIsIdempotent(t *testing.T) {
	api := &fakeAPI{}
	r, store := newTestReconciler(t, api, &fakeBlobs{})

	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Mama Njeri Grocers"}))
	require.NoError(t, store.StagePhotos([]string{"/sdcard/a.jpg"}, nil))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	callsAfterFirst := api.totalCalls()

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, api.totalCalls())
	assert.Equal(t, "Everything is up to date", summary.Message())
}

func TestPartialPhotoFailureRetriesOnNextPass(t *testing.T) {
	api := &fakeAPI{draftID: uuid.New()}
	blobs := &fakeBlobs{failPaths: map[string]bool{"/sdcard/b.jpg": true}}
	r, store := newTestReconciler(t, api, blobs)

	require.NoError(t, store.SetPointer(staging.RemotePointer(api.draftID)))
	require.NoError(t, store.StagePhotos([]string{"/sdcard/a.jpg", "/sdcard/b.jpg"}, nil))
	require.NoError(t, store.StageInterview("/sdcard/interview.m4a", nil, "audio"))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PhotosUploaded)
	assert.Equal(t, 1, summary.PhotosFailed)
	// A stuck photo does not hold the interview hostage.
	assert.True(t, summary.InterviewSynced)

	// The successful key was attached, and the failed path stays staged
	// with the uploaded key carried alongside it.
	require.Len(t, api.photoCalls, 1)
	assert.Equal(t, []string{"business_photos/a.jpg"}, api.photoCalls[0])

	staged, err := store.LoadPhotos()
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, []string{"/sdcard/b.jpg"}, staged.LocalPaths)
	assert.Equal(t, []string{"business_photos/a.jpg"}, staged.AlreadyUploadedKeys)

	// Connectivity comes back and the retry succeeds: the attach resends the
	// full key list so the server sees a complete set.
	blobs.failPaths = nil
	summary, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PhotosUploaded)
	assert.Equal(t, 0, summary.PhotosFailed)

	require.Len(t, api.photoCalls, 2)
	assert.Equal(t, []string{"business_photos/a.jpg", "business_photos/b.jpg"}, api.photoCalls[1])

	staged, err = store.LoadPhotos()
	require.NoError(t, err)
	assert.Nil(t, staged)
}

func TestVideoInterviewUploadsParallelAudio(t *testing.T) {
	api := &fakeAPI{draftID: uuid.New()}
	blobs := &fakeBlobs{}
	r, store := newTestReconciler(t, api, blobs)

	require.NoError(t, store.SetPointer(staging.RemotePointer(api.draftID)))
	audioPath := "/sdcard/interview-audio.m4a"
	require.NoError(t, store.StageInterview("/sdcard/interview.mp4", &audioPath, "video"))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, api.interviews, 1)
	got := api.interviews[0]
	assert.Equal(t, "video", got.kind)
	require.NotNil(t, got.videoKey)
	assert.Equal(t, "interviews/interview.mp4", *got.videoKey)
	require.NotNil(t, got.audioKey)
	assert.Equal(t, "interviews/interview-audio.m4a", *got.audioKey)
}

func TestMediaWithoutRemoteSubmissionAborts(t *testing.T) {
	api := &fakeAPI{}
	r, store := newTestReconciler(t, api, &fakeBlobs{})

	require.NoError(t, store.StagePhotos([]string{"/sdcard/a.jpg"}, nil))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoRemoteSubmission)

	// Nothing was lost; the photos wait for the info step.
	staged, loadErr := store.LoadPhotos()
	require.NoError(t, loadErr)
	require.NotNil(t, staged)
}

func TestConcurrentRunIsSkipped(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	r, store := newTestReconciler(t, api, &fakeBlobs{})

	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Mama Njeri Grocers"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := r.Run(context.Background())
		assert.NoError(t, err)
	}()

	// Wait until the first pass is inside CreateDraft, then trigger another.
	require.Eventually(t, func() bool {
		summary, err := r.Run(context.Background())
		return err == nil && summary.Skipped
	}, time.Second, 5*time.Millisecond)

	close(api.block)
	<-done
	assert.Equal(t, 1, api.createCalls)
}

func TestConnectivityRisingEdgeTriggersOnePass(t *testing.T) {
	api := &fakeAPI{}
	passes := make(chan Summary, 8)
	r, store := newTestReconciler(t, api, &fakeBlobs{},
		WithSettleDelay(5*time.Millisecond),
		WithNotifier(func(s Summary) { passes <- s }))

	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Mama Njeri Grocers"}))

	r.OnConnectivityChange(true)
	select {
	case s := <-passes:
		assert.True(t, s.InfoSynced)
	case <-time.After(2 * time.Second):
		t.Fatal("rising edge did not trigger a sync pass")
	}

	// Still online: no new pass.
	r.OnConnectivityChange(true)
	select {
	case <-passes:
		t.Fatal("repeated online report must not trigger a pass")
	case <-time.After(50 * time.Millisecond):
	}

	// Going offline and back online is a new edge.
	require.NoError(t, store.StageInfo(staging.InfoForm{BusinessName: "Renamed"}))
	r.OnConnectivityChange(false)
	r.OnConnectivityChange(true)
	select {
	case s := <-passes:
		assert.True(t, s.InfoSynced)
	case <-time.After(2 * time.Second):
		t.Fatal("second rising edge did not trigger a sync pass")
	}
	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, 1, api.patchCalls)
}

func TestSummaryMessage(t *testing.T) {
	assert.Equal(t, "Sync already in progress", Summary{Skipped: true}.Message())
	assert.Equal(t, "Everything is up to date", Summary{}.Message())
	assert.Equal(t, "business info synced, 2 photo(s) uploaded, 1 photo(s) will retry",
		Summary{InfoSynced: true, PhotosUploaded: 2, PhotosFailed: 1}.Message())
}
