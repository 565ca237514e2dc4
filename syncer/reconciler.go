package syncer

import (
	"context"
	"errors"
	"log"
	"mime"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmuriuki/biz_capture/staging"
)

const (
	photoFolder     = "business_photos"
	interviewFolder = "interviews"

	// DefaultSettleDelay gives the realtime channel time to re-establish
	// after a connectivity edge before the drain starts.
	DefaultSettleDelay = 2 * time.Second
)

// ErrNoRemoteSubmission means staged media exists but no remote submission
// id could be resolved; the caller has to re-stage the info step first.
var ErrNoRemoteSubmission = errors.New("no remote submission to attach staged media to")

// Reconciler drains the staging store into the backend once per
// disconnected -> connected edge. A single in-flight flag serializes passes:
// a trigger while one is running is a silent no-op, never queued.
type Reconciler struct {
	store  *staging.Store
	api    SubmissionAPI
	blobs  BlobStore
	notify func(Summary)

	settleDelay time.Duration
	inFlight    atomic.Bool

	mu     sync.Mutex
	online bool
}

type Option func(*Reconciler)

func WithSettleDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.settleDelay = d }
}

// WithNotifier sets the callback that surfaces the one-line sync summary to
// the user.
func WithNotifier(fn func(Summary)) Option {
	return func(r *Reconciler) { r.notify = fn }
}

func New(store *staging.Store, api SubmissionAPI, blobs BlobStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		api:         api,
		blobs:       blobs,
		notify:      func(Summary) {},
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnConnectivityChange feeds connectivity polls in. Only the rising edge
// triggers a pass; staying online (or flapping offline) does nothing.
func (r *Reconciler) OnConnectivityChange(online bool) {
	r.mu.Lock()
	rising := online && !r.online
	r.online = online
	r.mu.Unlock()

	if !rising {
		return
	}

	go func() {
		time.Sleep(r.settleDelay)
		if _, err := r.Run(context.Background()); err != nil {
			log.Printf("⚠️ Sync pass ended early: %v", err)
		}
	}()
}

// Watch pumps a connectivity channel into OnConnectivityChange until ctx is
// done.
func (r *Reconciler) Watch(ctx context.Context, ch <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-ch:
			if !ok {
				return
			}
			r.OnConnectivityChange(online)
		}
	}
}

// Run executes one reconciliation pass: info, then photos, then interview.
// Later phases need the submission id the info phase resolves, so the order
// is fixed. An error aborts the remaining phases; whatever already cleared
// stays cleared and retries never resurrect it.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return Summary{Skipped: true}, nil
	}
	defer r.inFlight.Store(false)

	if err := r.store.Flush(); err != nil {
		return Summary{}, err
	}

	var summary Summary

	if err := r.syncInfo(ctx, &summary); err != nil {
		r.notify(summary)
		return summary, err
	}
	if err := r.syncPhotos(ctx, &summary); err != nil {
		r.notify(summary)
		return summary, err
	}
	if err := r.syncInterview(ctx, &summary); err != nil {
		r.notify(summary)
		return summary, err
	}

	r.notify(summary)
	return summary, nil
}

func (r *Reconciler) syncInfo(ctx context.Context, summary *Summary) error {
	info, err := r.store.LoadInfo()
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	ptr := r.store.Pointer()
	if ptr.State == staging.Remote {
		if err := r.api.PatchInfo(ctx, ptr.SubmissionID, info.Form); err != nil {
			return err
		}
	} else {
		id, err := r.api.CreateDraft(ctx, info.Form)
		if err != nil {
			return err
		}
		if err := r.store.SetPointer(staging.RemotePointer(id)); err != nil {
			return err
		}
	}

	// Clear only after the remote write stuck; a crash in between means one
	// harmless re-patch on the next edge.
	if err := r.store.ClearInfo(); err != nil {
		return err
	}
	summary.InfoSynced = true
	return nil
}

func (r *Reconciler) syncPhotos(ctx context.Context, summary *Summary) error {
	photos, err := r.store.LoadPhotos()
	if err != nil {
		return err
	}
	if photos == nil {
		return nil
	}

	ptr := r.store.Pointer()
	if ptr.State != staging.Remote {
		return ErrNoRemoteSubmission
	}

	keys := append([]string{}, photos.AlreadyUploadedKeys...)
	var failed []string

	for _, localPath := range photos.LocalPaths {
		target, err := r.blobs.RequestUploadTarget(ctx, photoFolder, filepath.Base(localPath), contentTypeFor(localPath))
		if err != nil {
			log.Printf("⚠️ Upload target for %s failed: %v", localPath, err)
			failed = append(failed, localPath)
			continue
		}
		if err := r.blobs.Upload(ctx, target, localPath); err != nil {
			log.Printf("⚠️ Upload of %s failed: %v", localPath, err)
			failed = append(failed, localPath)
			continue
		}
		keys = append(keys, target.StorageKey)

		// Persist progress after each upload so a crash mid-phase never
		// re-uploads finished photos.
		if err := r.store.StagePhotos(append(failed, remaining(photos.LocalPaths, localPath)...), keys); err != nil {
			return err
		}
	}

	if len(keys) > len(photos.AlreadyUploadedKeys) || len(photos.AlreadyUploadedKeys) > 0 {
		if err := r.api.AttachPhotos(ctx, ptr.SubmissionID, keys); err != nil {
			if serr := r.store.StagePhotos(failed, keys); serr != nil {
				return serr
			}
			return err
		}
	}

	summary.PhotosUploaded = len(keys) - len(photos.AlreadyUploadedKeys)
	summary.PhotosFailed = len(failed)

	if len(failed) == 0 {
		return r.store.ClearPhotos()
	}
	// Failed paths stay staged (with the uploaded keys alongside them) and
	// retry on the next connectivity edge.
	return r.store.StagePhotos(failed, keys)
}

func (r *Reconciler) syncInterview(ctx context.Context, summary *Summary) error {
	interview, err := r.store.LoadInterview()
	if err != nil {
		return err
	}
	if interview == nil {
		return nil
	}

	ptr := r.store.Pointer()
	if ptr.State != staging.Remote {
		return ErrNoRemoteSubmission
	}

	target, err := r.blobs.RequestUploadTarget(ctx, interviewFolder, filepath.Base(interview.Path), contentTypeFor(interview.Path))
	if err != nil {
		return err
	}
	if err := r.blobs.Upload(ctx, target, interview.Path); err != nil {
		return err
	}

	var videoKey, audioKey *string
	switch interview.Kind {
	case "video":
		k := target.StorageKey
		videoKey = &k
		if interview.ParallelAudioPath != nil {
			audioTarget, err := r.blobs.RequestUploadTarget(ctx, interviewFolder, filepath.Base(*interview.ParallelAudioPath), contentTypeFor(*interview.ParallelAudioPath))
			if err != nil {
				return err
			}
			if err := r.blobs.Upload(ctx, audioTarget, *interview.ParallelAudioPath); err != nil {
				return err
			}
			ak := audioTarget.StorageKey
			audioKey = &ak
		}
	default:
		k := target.StorageKey
		audioKey = &k
	}

	if err := r.api.AttachInterview(ctx, ptr.SubmissionID, interview.Kind, videoKey, audioKey); err != nil {
		return err
	}

	// Cleared only on full success; any failure above leaves the record
	// untouched for the next edge.
	if err := r.store.ClearInterview(); err != nil {
		return err
	}
	summary.InterviewSynced = true
	return nil
}

// remaining returns the paths after the given one, preserving order.
func remaining(paths []string, after string) []string {
	for i, p := range paths {
		if p == after {
			return paths[i+1:]
		}
	}
	return nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
