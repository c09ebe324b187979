package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
	"github.com/pfrederiksen/circle-catalog/internal/config"
	"github.com/pfrederiksen/circle-catalog/internal/metrics"
	"github.com/pfrederiksen/circle-catalog/internal/scraper"
	"github.com/pfrederiksen/circle-catalog/internal/storage"
	"github.com/pfrederiksen/circle-catalog/internal/telemetry"
)

// ErrNoListing is returned when the page state has no circle.allCircle
// list. Publishing an empty catalog in that case would wipe the snapshot.
var ErrNoListing = errors.New("page state has no circle.allCircle listing")

// pipeline runs the stages of one invocation against a loaded config.
type pipeline struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func newPipeline(cfg *config.Config, log zerolog.Logger) *pipeline {
	return &pipeline{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		tracer:  telemetry.Tracer(),
	}
}

// fetched is what the fetch stage leaves behind.
type fetched struct {
	State     json.RawMessage
	Pattern   string
	HTMLBytes int
}

// processed is the outcome of assembling, patching and reconciling.
type processed struct {
	Circles   []*circle.Circle
	Overrides *circle.OverrideResult
	Summary   *circle.Summary
	Result    *storage.Result
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// fetch downloads the catalog page, extracts the embedded state and saves
// both to their scratch files.
func (p *pipeline) fetch(ctx context.Context) (*fetched, error) {
	ctx, span := p.tracer.Start(ctx, metrics.StageFetch)
	defer span.End()
	defer p.metrics.ObserveStage(metrics.StageFetch, time.Now())

	sc := scraper.New(
		scraper.WithURL(p.cfg.Fetch.URL),
		scraper.WithUserAgent(p.cfg.Fetch.UserAgent),
		scraper.WithTimeout(p.cfg.Fetch.Timeout),
		scraper.WithRobots(p.cfg.Fetch.RespectRobots),
	)
	span.SetAttributes(attribute.String("url", sc.URL()))
	p.log.Info().Str("url", sc.URL()).Msg("fetching catalog")

	html, err := sc.Fetch(p.log.WithContext(ctx))
	if err != nil {
		return nil, fail(span, fmt.Errorf("fetching catalog: %w", err))
	}
	if err := storage.WriteFile(p.cfg.HTMLFile, html); err != nil {
		return nil, fail(span, fmt.Errorf("saving catalog page: %w", err))
	}
	p.log.Info().Int("bytes", len(html)).Str("file", p.cfg.HTMLFile).Msg("saved catalog page")

	extraction, err := p.extract(ctx, html)
	if err != nil {
		return nil, fail(span, err)
	}

	pretty, err := scraper.Indent(extraction.State)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := storage.WriteFile(p.cfg.StateFile, pretty); err != nil {
		return nil, fail(span, fmt.Errorf("saving page state: %w", err))
	}
	p.log.Info().Str("file", p.cfg.StateFile).Msg("saved page state")

	return &fetched{
		State:     extraction.State,
		Pattern:   extraction.Pattern,
		HTMLBytes: len(html),
	}, nil
}

func (p *pipeline) extract(ctx context.Context, html []byte) (*scraper.Extraction, error) {
	_, span := p.tracer.Start(ctx, metrics.StageExtract)
	defer span.End()
	defer p.metrics.ObserveStage(metrics.StageExtract, time.Now())

	extraction, err := scraper.ExtractInitialState(html)
	if err != nil {
		if errors.Is(err, scraper.ErrStateNotFound) {
			p.logScripts(html)
		}
		return nil, fail(span, err)
	}
	span.SetAttributes(
		attribute.String("pattern", extraction.Pattern),
		attribute.Int("scripts", extraction.Scripts),
	)
	p.log.Info().
		Str("pattern", extraction.Pattern).
		Int("scripts", extraction.Scripts).
		Int("bytes", len(extraction.State)).
		Msg("extracted page state")
	return extraction, nil
}

// logScripts dumps the page's inline scripts at debug level so a changed
// page layout can be diagnosed from the run log.
func (p *pipeline) logScripts(html []byte) {
	if p.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	fragments, err := scraper.InspectScripts(html)
	if err != nil {
		p.log.Debug().Err(err).Msg("could not inspect page scripts")
		return
	}
	for _, f := range fragments {
		ev := p.log.Debug().
			Int("script", f.Index).
			Int("chars", f.Length).
			Str("preview", f.Preview)
		if len(f.Objects) > 0 {
			ev = ev.RawJSON("json_objects", joinJSON(f.Objects))
		}
		ev.Msg("page script")
	}
	p.log.Debug().Int("scripts", len(fragments)).Msg("inspected page scripts")
}

func joinJSON(items []json.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// process turns a page state into the published snapshot.
func (p *pipeline) process(ctx context.Context, state []byte) (*processed, error) {
	circles, err := p.assemble(ctx, state)
	if err != nil {
		return nil, err
	}

	overrides := p.applyOverrides(ctx, circles)
	summary := circle.Summarize(circles)

	result, err := p.reconcile(ctx, circles)
	if err != nil {
		return nil, err
	}

	return &processed{
		Circles:   circles,
		Overrides: overrides,
		Summary:   summary,
		Result:    result,
	}, nil
}

func (p *pipeline) assemble(ctx context.Context, state []byte) ([]*circle.Circle, error) {
	_, span := p.tracer.Start(ctx, metrics.StageAssemble)
	defer span.End()
	defer p.metrics.ObserveStage(metrics.StageAssemble, time.Now())

	page, err := circle.ParsePageState(state)
	if err != nil {
		return nil, fail(span, err)
	}

	circles, ok := circle.NewAssembler(p.loadMapping()).AssembleAll(page)
	if !ok {
		return nil, fail(span, ErrNoListing)
	}

	span.SetAttributes(attribute.Int("circles", len(circles)))
	p.metrics.CirclesProcessed.Add(float64(len(circles)))
	p.log.Info().Int("circles", len(circles)).Msg("assembled circles")
	p.logExamples(circles)
	return circles, nil
}

const exampleCircles = 10

// logExamples writes the first assembled circles at debug level.
func (p *pipeline) logExamples(circles []*circle.Circle) {
	if p.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	for i, c := range circles {
		if i == exampleCircles {
			break
		}
		p.log.Debug().
			Int("example", i+1).
			Str("id", circle.IDString(c.ID)).
			Str("name", c.Name).
			Str("circle_code", c.CircleCode).
			Strs("booths", c.Booths).
			Str("day", string(c.Day)).
			Int("urls", len(c.URLs)).
			Strs("raw_fandoms", c.RawFandoms).
			Strs("fandoms", c.Fandoms).
			Strs("works_type", c.WorksType).
			Int("sampleworks_images", len(c.SampleworksImages)).
			Bool("circle_cut", c.CircleCut != "").
			Msg("example circle")
	}
}

// loadMapping returns the fandom mapping, or nil when it is not configured,
// missing or unreadable.
func (p *pipeline) loadMapping() circle.FandomMapping {
	path := p.cfg.MappingFile
	if path == "" {
		return nil
	}

	mapping, skipped, err := storage.LoadFandomMapping(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.log.Warn().Str("file", path).Msg("fandom mapping not found, continuing without mapping")
		return nil
	case err != nil:
		p.log.Warn().Err(err).Str("file", path).Msg("could not load fandom mapping, continuing without mapping")
		return nil
	}

	for _, key := range skipped {
		p.log.Warn().Str("key", key).Msg("fandom mapping entry is not a string or list of strings")
	}
	p.log.Info().Int("entries", len(mapping)).Str("file", path).Msg("loaded fandom mapping")
	return mapping
}

func (p *pipeline) applyOverrides(ctx context.Context, circles []*circle.Circle) *circle.OverrideResult {
	_, span := p.tracer.Start(ctx, metrics.StageOverrides)
	defer span.End()
	defer p.metrics.ObserveStage(metrics.StageOverrides, time.Now())

	patches := p.loadOverrides()
	result := circle.ApplyOverrides(circles, patches)

	for _, id := range result.Missing {
		p.log.Warn().Str("id", id).Msg("override target not found")
	}
	for _, fe := range result.Mistyped {
		p.log.Warn().Err(fe.Err).Str("id", fe.ID).Str("field", fe.Field).Msg("override value does not match field type, stored verbatim")
	}

	p.metrics.OverridesApplied.Add(float64(len(result.Applied)))
	p.metrics.OverridesMissing.Add(float64(len(result.Missing)))
	p.metrics.OverridesMistyped.Add(float64(len(result.Mistyped)))
	span.SetAttributes(
		attribute.Int("patches", len(patches)),
		attribute.Int("applied", len(result.Applied)),
		attribute.Int("missing", len(result.Missing)),
		attribute.Int("mistyped", len(result.Mistyped)),
	)
	if len(patches) > 0 {
		p.log.Info().
			Int("patches", len(patches)).
			Int("applied", len(result.Applied)).
			Int("missing", len(result.Missing)).
			Int("mistyped", len(result.Mistyped)).
			Msg("applied overrides")
	}
	return result
}

func (p *pipeline) loadOverrides() []circle.Patch {
	path := p.cfg.OverridesFile
	if path == "" {
		return nil
	}

	patches, err := storage.LoadOverrides(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.log.Warn().Str("file", path).Msg("overrides not found, continuing without overrides")
		return nil
	case err != nil:
		p.log.Warn().Err(err).Str("file", path).Msg("could not load overrides, continuing without overrides")
		return nil
	}
	return patches
}

func (p *pipeline) openStore() (*storage.Store, error) {
	return storage.New(p.cfg.DataDir,
		storage.WithSnapshotFile(p.cfg.SnapshotFile),
		storage.WithReleaseFile(p.cfg.ReleaseFile),
	)
}

func (p *pipeline) reconcile(ctx context.Context, circles []*circle.Circle) (*storage.Result, error) {
	_, span := p.tracer.Start(ctx, metrics.StageReconcile)
	defer span.End()
	defer p.metrics.ObserveStage(metrics.StageReconcile, time.Now())

	store, err := p.openStore()
	if err != nil {
		return nil, fail(span, fmt.Errorf("initializing storage: %w", err))
	}

	result, err := store.Reconcile(circles)
	if err != nil {
		return nil, fail(span, fmt.Errorf("reconciling snapshot: %w", err))
	}

	p.metrics.SnapshotVersion.Set(float64(result.Version))
	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.Int("version", result.Version),
	)

	if result.Updated() {
		p.metrics.SnapshotUpdates.Inc()
		p.log.Info().
			Int("previous_version", result.PreviousVersion).
			Int("version", result.Version).
			Int("added", len(result.Diff.Added)).
			Int("removed", len(result.Diff.Removed)).
			Int("modified", len(result.Diff.Modified)).
			Str("file", store.SnapshotPath()).
			Msg("snapshot updated")
	} else {
		p.log.Info().Int("version", result.Version).Msg("no changes detected, snapshot unchanged")
	}
	return result, nil
}

// flushMetrics writes the textfile when one is configured. Failures are
// logged; they never change the outcome of the run.
func (p *pipeline) flushMetrics() {
	if p.cfg.MetricsFile == "" {
		return
	}
	path, err := storage.ExpandHome(p.cfg.MetricsFile)
	if err == nil {
		err = p.metrics.WriteTextfile(path)
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("could not write metrics")
		return
	}
	p.log.Debug().Str("file", path).Msg("wrote metrics")
}
