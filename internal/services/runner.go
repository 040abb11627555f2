package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfservicesflow/internal/output"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

const defaultConcurrency = 10

// JobClient is the slice of *pdfservices.Client a Runner drives.
type JobClient interface {
	UploadFile(ctx context.Context, path string, mediaType pdfservices.MediaType) (pdfservices.Asset, error)
	Submit(ctx context.Context, job pdfservices.Job) (pdfservices.JobHandle, error)
	Await(ctx context.Context, h pdfservices.JobHandle) (*pdfservices.JobStatus, error)
	FetchContent(ctx context.Context, a pdfservices.Asset) (*pdfservices.StreamAsset, error)
	DeleteAsset(ctx context.Context, a pdfservices.Asset) error
}

// Runner is the shared upload, submit, await and save flow.
type Runner struct {
	Client JobClient
	Sink   output.Sink
	// Dir is the output directory (or object prefix) results are named under.
	Dir    string
	Now    func() time.Time
	Logger *slog.Logger
	// Cleanup deletes uploaded and result assets from the service once the
	// results are saved.
	Cleanup     bool
	Concurrency int
	// Submitted, when set, is called with the job handle right after Submit.
	Submitted func(ctx context.Context, h pdfservices.JobHandle) error
}

// RunResult is what one job run left behind.
type RunResult struct {
	Handle pdfservices.JobHandle
	Status *pdfservices.JobStatus
	Saved  []string
}

// JobFailedError reports a job the service finished as failed.
type JobFailedError struct {
	Operation pdfservices.Operation
	Handle    pdfservices.JobHandle
	Detail    *pdfservices.JobError
}

func (e *JobFailedError) Error() string {
	if e.Detail == nil {
		return fmt.Sprintf("%s job failed", e.Operation)
	}
	return fmt.Sprintf("%s job failed: %s", e.Operation, e.Detail)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) limit() int {
	if r.Concurrency <= 0 {
		return defaultConcurrency
	}
	return r.Concurrency
}

// UploadAll uploads every path concurrently and returns the assets in the
// order of paths. Media types are detected from content.
func (r *Runner) UploadAll(ctx context.Context, paths ...string) ([]pdfservices.Asset, error) {
	assets := make([]pdfservices.Asset, len(paths))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.limit())
	for i, path := range paths {
		eg.Go(func() error {
			a, err := r.Client.UploadFile(gctx, path, "")
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", path, err)
			}
			assets[i] = a
			r.logger().Info("Uploaded input.", "path", path, "assetId", a.ID)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// Run submits job, waits for it and saves every result under names built
// from label. uploads are the inputs to delete afterwards when Cleanup is set.
func (r *Runner) Run(ctx context.Context, label string, job pdfservices.Job, uploads ...pdfservices.Asset) (*RunResult, error) {
	logCtx := r.logger().With("operation", label)

	h, err := r.Client.Submit(ctx, job)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("jobLocation", string(h))
	logCtx.Info("Job submitted.")
	if r.Submitted != nil {
		if err := r.Submitted(ctx, h); err != nil {
			return nil, err
		}
	}

	st, err := r.Client.Await(ctx, h)
	if err != nil {
		return nil, err
	}
	res := &RunResult{Handle: h, Status: st}
	if st.State == pdfservices.JobFailed {
		r.cleanup(ctx, logCtx, uploads)
		return res, &JobFailedError{Operation: job.Operation(), Handle: h, Detail: st.Error}
	}

	res.Saved, err = r.Save(ctx, label, st.Result)
	if err != nil {
		return res, err
	}
	logCtx.Info("Job results saved.", "outputs", res.Saved)
	r.cleanup(ctx, logCtx, slices.Concat(uploads, resultAssets(st.Result)))
	return res, nil
}

// Save downloads every output of result and writes it to the sink. Names
// follow output.Namer: a single asset gets the plain name, a list gets
// indexed names, reports and resources get their own suffix. A result that
// only carries properties is saved as JSON.
func (r *Runner) Save(ctx context.Context, label string, result *pdfservices.JobResult) ([]string, error) {
	if result == nil {
		return nil, nil
	}
	namer := output.NewNamer(r.Dir, label, r.now())

	type target struct {
		asset pdfservices.Asset
		name  func(ext string) string
	}
	var targets []target
	assets := result.All()
	for i, a := range assets {
		if len(assets) == 1 && len(result.Assets) == 0 {
			targets = append(targets, target{a, namer.Single})
			continue
		}
		targets = append(targets, target{a, func(ext string) string { return namer.Indexed(i, ext) }})
	}
	if result.Report != nil {
		targets = append(targets, target{*result.Report, namer.Report})
	}
	if result.Resource != nil {
		targets = append(targets, target{*result.Resource, namer.Resource})
	}

	saved := make([]string, len(targets))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.limit())
	for i, t := range targets {
		eg.Go(func() error {
			stream, err := r.Client.FetchContent(gctx, t.asset)
			if err != nil {
				return fmt.Errorf("failed to fetch asset %s: %w", t.asset.ID, err)
			}
			defer stream.Body.Close()
			where, err := r.Sink.Save(gctx, t.name(pdfservices.ExtensionFor(stream.MediaType, ".bin")), stream.Body, stream.MediaType)
			if err != nil {
				return fmt.Errorf("failed to save asset %s: %w", t.asset.ID, err)
			}
			saved[i] = where
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(targets) == 0 && len(result.Properties) > 0 {
		where, err := r.Sink.Save(ctx, namer.Single(".json"), bytes.NewReader(result.Properties), string(pdfservices.MediaTypeJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to save properties: %w", err)
		}
		saved = append(saved, where)
	}
	return saved, nil
}

func resultAssets(result *pdfservices.JobResult) []pdfservices.Asset {
	if result == nil {
		return nil
	}
	assets := result.All()
	for _, a := range []*pdfservices.Asset{result.Report, result.Resource} {
		if a != nil {
			assets = append(assets, *a)
		}
	}
	return assets
}

// cleanup deletes assets when Cleanup is set. Failures are only logged; the
// service expires assets on its own.
func (r *Runner) cleanup(ctx context.Context, logCtx *slog.Logger, assets []pdfservices.Asset) {
	if !r.Cleanup || len(assets) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, a := range assets {
		if a.ID == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Client.DeleteAsset(ctx, a); err != nil {
				logCtx.Warn("Failed to delete asset.", "assetId", a.ID, "error", err)
			}
		}()
	}
	wg.Wait()
}
