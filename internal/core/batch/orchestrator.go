// Package batch runs a set of references through resolve, acquire and tag,
// isolating failures per track.
package batch

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"spotube-downloader/internal/core/matcher"
	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

// Orchestrator owns the per-batch loop
type Orchestrator struct {
	resolver interfaces.ReferenceResolver
	acquirer interfaces.AcquisitionEngine
	post     interfaces.Postprocessor
	progress interfaces.ProgressReporter
	warnings interfaces.WarningCollectorService
	logger   interfaces.LoggerService
}

// NewOrchestrator wires the pipeline stages. progress, warnings and logger may be nil.
func NewOrchestrator(
	resolver interfaces.ReferenceResolver,
	acquirer interfaces.AcquisitionEngine,
	post interfaces.Postprocessor,
	progress interfaces.ProgressReporter,
	warnings interfaces.WarningCollectorService,
	logger interfaces.LoggerService,
) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		acquirer: acquirer,
		post:     post,
		progress: progress,
		warnings: warnings,
		logger:   logger,
	}
}

// Run resolves every reference, then acquires and tags each track. A resolver
// error aborts the run with no results; per-track failures are recorded in the
// returned slice, which follows reference and catalog order.
func (o *Orchestrator) Run(ctx context.Context, refs []string, cfg shared.RunConfiguration) ([]shared.AcquisitionResult, error) {
	worklist, err := o.resolveAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	if len(worklist) == 0 {
		o.info("Nothing to download")
		return []shared.AcquisitionResult{}, nil
	}
	o.info("Downloading %d tracks to %s", len(worklist), cfg.DownloadPath)

	results := make([]shared.AcquisitionResult, len(worklist))
	if cfg.Parallelism <= 1 {
		for i, d := range worklist {
			if ctx.Err() != nil {
				results[i] = cancelledResult(d, ctx.Err())
				continue
			}
			results[i] = o.process(ctx, i, len(worklist), d, cfg)
		}
	} else {
		o.runPool(ctx, worklist, results, cfg)
	}

	if o.progress != nil {
		o.progress.Stop()
	}
	return results, nil
}

func (o *Orchestrator) resolveAll(ctx context.Context, refs []string) ([]shared.TrackDescriptor, error) {
	var worklist []shared.TrackDescriptor
	for _, ref := range refs {
		o.debug("Resolving %s", ref)
		descriptors, err := o.resolver.Resolve(ctx, ref)
		if err != nil {
			if o.logger != nil {
				o.logger.Error("Failed to resolve %s: %v", ref, err)
			}
			return nil, err
		}
		o.info("%s: %d tracks", ref, len(descriptors))
		worklist = append(worklist, descriptors...)
	}
	return worklist, nil
}

// runPool processes the worklist with at most cfg.Parallelism tracks in flight.
// Each result is stored at its worklist index so completion order does not matter.
func (o *Orchestrator) runPool(ctx context.Context, worklist []shared.TrackDescriptor, results []shared.AcquisitionResult, cfg shared.RunConfiguration) {
	sem := semaphore.NewWeighted(int64(cfg.Parallelism))
	var g errgroup.Group

	for i, d := range worklist {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(worklist); j++ {
				results[j] = cancelledResult(worklist[j], err)
			}
			break
		}

		i, d := i, d
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = o.process(ctx, i, len(worklist), d, cfg)
			return nil
		})
	}

	_ = g.Wait()
}

// process handles one track; it never returns an error, failures end up in the result
func (o *Orchestrator) process(ctx context.Context, index, total int, d shared.TrackDescriptor, cfg shared.RunConfiguration) shared.AcquisitionResult {
	query := matcher.BuildQuery(d)
	destination := filepath.Join(cfg.DownloadPath, matcher.FileStem(d))
	chain := o.post.Chain(d, cfg.AudioFormat, cfg.AudioQuality)

	o.info("🎵 Downloading %d/%d: %s", index+1, total, d)
	o.debug("Query %q -> %s", query, destination)

	sink := o.newSink(index, d.String())
	path, err := o.acquirer.Acquire(ctx, query, destination, chain, sink)
	sink.Close()
	if err != nil {
		if o.logger != nil {
			o.logger.Error("Failed %s: %v", d, err)
		}
		return shared.AcquisitionResult{
			Descriptor: d,
			Status:     shared.StatusFailed,
			Err:        err,
		}
	}

	result := shared.AcquisitionResult{
		Descriptor: d,
		Status:     shared.StatusSucceeded,
		OutputPath: path,
	}
	if err := o.post.Tag(ctx, path, d, cfg.AudioFormat); err != nil {
		result.TagErr = err
		if o.warnings != nil {
			o.warnings.AddTagWarning(d.String(), err.Error())
		}
		if o.logger != nil {
			o.logger.Warning("Downloaded %s but tagging failed: %v", d, err)
		}
		return result
	}

	if o.logger != nil {
		o.logger.Success("Saved %s", path)
	}
	return result
}

func (o *Orchestrator) newSink(index int, label string) interfaces.ProgressSink {
	if o.progress == nil {
		return taskSink{id: index}
	}
	return taskSink{id: index, sink: o.progress.NewSink(index, label)}
}

func cancelledResult(d shared.TrackDescriptor, err error) shared.AcquisitionResult {
	return shared.AcquisitionResult{
		Descriptor: d,
		Status:     shared.StatusFailed,
		Err:        &shared.CancelledError{Query: matcher.BuildQuery(d), Err: err},
	}
}

func (o *Orchestrator) info(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Info(format, args...)
	}
}

func (o *Orchestrator) debug(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Debug(format, args...)
	}
}

// taskSink stamps every event with the track's task identity
type taskSink struct {
	id   int
	sink interfaces.ProgressSink
}

func (s taskSink) Emit(event shared.ProgressEvent) {
	if s.sink == nil {
		return
	}
	event.TaskID = s.id
	s.sink.Emit(event)
}

func (s taskSink) Close() {
	if s.sink != nil {
		s.sink.Close()
	}
}
