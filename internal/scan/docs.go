package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openlms/ask4summary/internal/acquire"
	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/moodle"
	"github.com/openlms/ask4summary/internal/segment"
	"github.com/openlms/ask4summary/internal/store"
)

// DocMimePDF and friends are the resource MIME types the docs pass handles.
const (
	DocMimePDF  = "application/pdf"
	DocMimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	DocMimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// DocsScanner ingests pending course content modules into the index.
type DocsScanner struct {
	store     Store
	registry  Registry
	acquirer  Acquirer
	crawler   Crawler
	extractor Extractor
	logger    log.Logger
}

// NewDocsScanner creates a docs pass runner.
func NewDocsScanner(st Store, registry Registry, acquirer Acquirer, cr Crawler, extractor Extractor, logger log.Logger) *DocsScanner {
	return &DocsScanner{
		store:     st,
		registry:  registry,
		acquirer:  acquirer,
		crawler:   cr,
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes one docs pass over every enabled course. Module failures are
// isolated; the pass fails only when the store or the module registry is
// unavailable.
func (d *DocsScanner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := d.logger.With("run", runID)
	started := time.Now()

	courses, err := d.store.EnabledCourses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enabled courses: %w", err)
	}

	var scanned, skipped, failed int
	for _, settings := range courses {
		modules, err := d.registry.CourseModules(ctx, settings.CourseID)
		if err != nil {
			logger.Error("failed to list course modules",
				"course", settings.CourseID, "error", err)
			failed++
			continue
		}

		for _, module := range modules {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcome, err := d.scanModule(ctx, settings, module)
			switch {
			case err != nil:
				logger.Error("module scan failed",
					"course", settings.CourseID, "module", module.ID, "error", err)
				failed++
			case outcome:
				scanned++
			default:
				skipped++
			}
		}
	}

	logger.Info("docs pass finished",
		"courses", len(courses), "scanned", scanned, "skipped", skipped, "failed", failed,
		"seconds", time.Since(started).Seconds())
	return nil
}

// scanModule ingests one module. It returns false with a nil error when the
// module is not scannable (unsupported type, disabled format, already done).
func (d *DocsScanner) scanModule(ctx context.Context, settings store.Settings, module moodle.Module) (bool, error) {
	depth := 0
	if module.Type == moodle.ModuleURL {
		depth = settings.CrawlDepth
	}

	object, err := d.store.ObjectByModule(ctx, module.ID, depth)
	switch {
	case err == nil && object.Parsed:
		return false, nil
	case err == nil:
		// Recorded unparsed on an earlier pass (converter outage, empty
		// content). Retry ingestion against the same row.
	case errors.Is(err, store.ErrNotFound):
		object = nil
	default:
		return false, err
	}

	if object == nil {
		// The object is created parsed up-front as a failsafe: if the pass
		// dies here the module is not re-ingested in a loop forever. The flag
		// is corrected below for units that turn out unparsable.
		moduleID := module.ID
		object, err = d.store.CreateObject(ctx, store.CreateObjectParams{
			CourseID: settings.CourseID,
			ModuleID: &moduleID,
			Name:     module.Name,
			URL:      moduleURL(module),
			Depth:    depth,
			MimeType: module.MimeType,
			Parsed:   true,
		})
		if err != nil {
			return false, err
		}
	}

	switch module.Type {
	case moodle.ModulePage:
		if !settings.EnablePage {
			return false, d.store.DeleteObject(ctx, object.ID)
		}
		html, err := d.registry.PageContent(ctx, settings.CourseID, module.Instance)
		if err != nil {
			return false, d.rollback(ctx, object.ID, err)
		}
		return d.ingest(ctx, object.ID, acquire.Source{Kind: acquire.KindPage, HTML: html})

	case moodle.ModuleResource:
		kind, enabled := resourceKind(settings, module.MimeType)
		if !enabled {
			return false, d.store.DeleteObject(ctx, object.ID)
		}
		data, err := d.registry.DownloadFile(ctx, module.FileURL)
		if err != nil {
			return false, d.rollback(ctx, object.ID, err)
		}
		return d.ingest(ctx, object.ID, acquire.Source{Kind: kind, Data: data})

	case moodle.ModuleURL:
		if !settings.EnableURL {
			return false, d.store.DeleteObject(ctx, object.ID)
		}
		return d.scanURL(ctx, settings, object.ID, module.URL, depth)

	default:
		// Not a content module. Remove the placeholder.
		return false, d.store.DeleteObject(ctx, object.ID)
	}
}

// scanURL crawls the module's seed URL and ingests every reached page. The
// seed page lands in the module's own object; deeper pages get anonymous
// per-URL objects at their remaining depth, shared course-wide.
func (d *DocsScanner) scanURL(ctx context.Context, settings store.Settings, seedObjectID int64, seedURL string, depth int) (bool, error) {
	pages, err := d.crawler.Crawl(ctx, seedURL, depth)
	if err != nil {
		return false, d.rollback(ctx, seedObjectID, err)
	}

	ingestedSeed := false
	for i, page := range pages {
		objectID := seedObjectID
		if i > 0 {
			existing, err := d.store.ObjectByURL(ctx, settings.CourseID, page.URL, page.Depth)
			switch {
			case err == nil && existing.Parsed:
				continue
			case err == nil:
				// Retry a page recorded unparsed on an earlier pass.
				objectID = existing.ID
			case errors.Is(err, store.ErrNotFound):
				pageURL := page.URL
				object, err := d.store.CreateObject(ctx, store.CreateObjectParams{
					CourseID: settings.CourseID,
					Name:     page.Title,
					URL:      &pageURL,
					Depth:    page.Depth,
					MimeType: "text/html",
					Parsed:   true,
				})
				if err != nil {
					return false, err
				}
				objectID = object.ID
			default:
				return false, err
			}
		}

		if err := d.indexSentences(ctx, objectID, page.Sentences); err != nil {
			if i == 0 {
				return false, d.rollback(ctx, seedObjectID, err)
			}
			// Deeper pages fail individually.
			d.logger.Warn("failed to index crawled page", "url", page.URL, "error", err)
			if err := d.store.SetObjectParsed(ctx, objectID, false); err != nil {
				return false, err
			}
			continue
		}
		if i == 0 {
			ingestedSeed = true
		} else if err := d.store.SetObjectParsed(ctx, objectID, true); err != nil {
			return false, err
		}
	}

	if err := d.store.SetObjectParsed(ctx, seedObjectID, ingestedSeed); err != nil {
		return false, err
	}
	return ingestedSeed, nil
}

// ingest acquires the unit's sentences and indexes them under the object.
// Content that yields no sentences leaves the object recorded as unparsed.
func (d *DocsScanner) ingest(ctx context.Context, objectID int64, src acquire.Source) (bool, error) {
	sentences, err := d.acquirer.Sentences(ctx, src)
	if err != nil {
		if errors.Is(err, acquire.ErrNoContent) {
			d.logger.Debug("content unit yielded no sentences", "object", objectID, "error", err)
			return false, d.store.SetObjectParsed(ctx, objectID, false)
		}
		return false, d.rollback(ctx, objectID, err)
	}

	if err := d.indexSentences(ctx, objectID, sentences); err != nil {
		return false, d.rollback(ctx, objectID, err)
	}
	// Retried objects carry parsed=false from the earlier pass.
	if err := d.store.SetObjectParsed(ctx, objectID, true); err != nil {
		return false, err
	}
	return true, nil
}

// indexSentences extracts and stores the n-grams of each sentence. Sentences
// are cleaned (lowercased, punctuation stripped) before extraction and stored
// in that cleaned form; summaries re-capitalize and re-terminate them. A
// sentence already stored for the object is left untouched.
func (d *DocsScanner) indexSentences(ctx context.Context, objectID int64, sentences []string) error {
	for _, raw := range sentences {
		sentence := segment.CleanForExtraction(raw, "")
		if sentence == "" {
			continue
		}

		started := time.Now()
		ngrams, err := d.extractor.Extract(ctx, sentence)
		if err != nil {
			return fmt.Errorf("n-gram extraction failed: %w", err)
		}

		ids := make([]int64, 0, len(ngrams))
		for _, n := range ngrams {
			posID, err := d.store.GetOrCreatePOS(ctx, n.POS, n.N)
			if err != nil {
				return err
			}
			id, err := d.store.GetOrCreateNgram(ctx, n.Text, posID)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if _, _, err := d.store.InsertObjectSentence(ctx, objectID, sentence, time.Since(started).Seconds(), ids); err != nil {
			return err
		}
	}
	return nil
}

// rollback removes a partially ingested object so the next pass retries it,
// and returns the original failure.
func (d *DocsScanner) rollback(ctx context.Context, objectID int64, cause error) error {
	if err := d.store.DeleteObject(ctx, objectID); err != nil {
		d.logger.Error("failed to roll back object", "object", objectID, "error", err)
	}
	return cause
}

// resourceKind maps a resource MIME type to its content kind and enablement.
func resourceKind(settings store.Settings, mimeType string) (acquire.Kind, bool) {
	switch mimeType {
	case DocMimePDF:
		return acquire.KindPDF, settings.EnablePDF
	case DocMimeDOCX:
		return acquire.KindDOCX, settings.EnableDOCX
	case DocMimePPTX:
		return acquire.KindPPTX, settings.EnablePPTX
	default:
		return acquire.KindPDF, false
	}
}

func moduleURL(module moodle.Module) *string {
	if module.Type != moodle.ModuleURL || module.URL == "" {
		return nil
	}
	u := module.URL
	return &u
}
