// Package scan runs the two batch passes of the pipeline: the docs pass that
// ingests course content into the index, and the forums pass that collects
// new questions addressed to the helper.
//
// Both passes isolate failures per unit: a module or posting that cannot be
// processed is logged and skipped, and the pass carries on. Only the
// unavailability of the store itself aborts a pass.
package scan

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/openlms/ask4summary/internal/acquire"
	"github.com/openlms/ask4summary/internal/crawler"
	"github.com/openlms/ask4summary/internal/moodle"
	"github.com/openlms/ask4summary/internal/ngram"
	"github.com/openlms/ask4summary/internal/store"
)

// Registry reads course structure and content from the host LMS.
type Registry interface {
	CourseModules(ctx context.Context, courseID int64) ([]moodle.Module, error)
	PageContent(ctx context.Context, courseID, instance int64) (string, error)
	DownloadFile(ctx context.Context, fileURL string) ([]byte, error)
}

// ForumReader reads course forums and their postings from the host LMS.
type ForumReader interface {
	CourseForums(ctx context.Context, courseID int64) ([]moodle.Forum, error)
	ForumPosts(ctx context.Context, forumID int64) ([]moodle.Post, error)
}

// Extractor extracts verified n-grams from a sentence.
type Extractor interface {
	Extract(ctx context.Context, sentence string) ([]ngram.Ngram, error)
}

// Acquirer converts content units into sentences.
type Acquirer interface {
	Sentences(ctx context.Context, src acquire.Source) ([]string, error)
}

// Crawler crawls a seed URL into pages.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string, maxDepth int) ([]crawler.Page, error)
}

// Store is the persistence surface the passes need.
type Store interface {
	EnabledCourses(ctx context.Context) ([]store.Settings, error)

	ObjectByModule(ctx context.Context, moduleID int64, depth int) (*store.Object, error)
	ObjectByURL(ctx context.Context, courseID int64, url string, depth int) (*store.Object, error)
	CreateObject(ctx context.Context, p store.CreateObjectParams) (*store.Object, error)
	SetObjectParsed(ctx context.Context, objectID int64, parsed bool) error
	DeleteObject(ctx context.Context, objectID int64) error
	InsertObjectSentence(ctx context.Context, objectID int64, text string, timeTaken float64, ngramIDs []int64) (int64, bool, error)

	GetOrCreatePOS(ctx context.Context, label string, ngramLength int) (int64, error)
	GetOrCreateNgram(ctx context.Context, word string, posID int64) (int64, error)

	PostSeen(ctx context.Context, postID int64) (bool, error)
	InsertQuestionSentence(ctx context.Context, courseID, postID int64, text string, timeTaken float64, answered bool, ngramIDs []int64) (int64, error)
}

// stripHTML reduces forum message markup to its text.
func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
