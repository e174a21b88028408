package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openlms/ask4summary/internal/answer"
	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/moodle"
	"github.com/openlms/ask4summary/internal/segment"
	"github.com/openlms/ask4summary/internal/store"
)

// CourseQuestions pairs a course's settings with its newly found questions.
type CourseQuestions struct {
	Settings  store.Settings
	Questions []answer.Question
}

// ForumsScanner finds unseen postings addressed to the helper and prepares
// them for answering.
type ForumsScanner struct {
	store     Store
	forums    ForumReader
	extractor Extractor
	logger    log.Logger
}

// NewForumsScanner creates a forums pass runner.
func NewForumsScanner(st Store, forums ForumReader, extractor Extractor, logger log.Logger) *ForumsScanner {
	return &ForumsScanner{
		store:     st,
		forums:    forums,
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes one forums pass over every enabled course and returns the
// questions found, grouped per course in posting order. Posting failures are
// isolated per post.
func (f *ForumsScanner) Run(ctx context.Context) ([]CourseQuestions, error) {
	runID := uuid.NewString()
	logger := f.logger.With("run", runID)

	courses, err := f.store.EnabledCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled courses: %w", err)
	}

	var out []CourseQuestions
	for _, settings := range courses {
		forumIDs, err := f.courseForumIDs(ctx, settings)
		if err != nil {
			logger.Error("failed to resolve course forums",
				"course", settings.CourseID, "error", err)
			continue
		}

		cq := CourseQuestions{Settings: settings}
		var scanned int
		for _, forumID := range forumIDs {
			posts, err := f.forums.ForumPosts(ctx, forumID)
			if err != nil {
				logger.Error("failed to read forum",
					"course", settings.CourseID, "forum", forumID, "error", err)
				continue
			}
			scanned += len(posts)

			for _, post := range posts {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				question, ok, err := f.scanPost(ctx, settings, post)
				if err != nil {
					logger.Error("post scan failed",
						"course", settings.CourseID, "post", post.ID, "error", err)
					continue
				}
				if ok {
					cq.Questions = append(cq.Questions, question)
				}
			}
		}

		if len(cq.Questions) > 0 {
			out = append(out, cq)
		}
		logger.Info("course forums scanned",
			"course", settings.CourseID, "forums", len(forumIDs),
			"posts", scanned, "questions", len(cq.Questions))
	}
	return out, nil
}

// courseForumIDs resolves which forums the pass reads for a course. The
// all-forums response type enumerates the course's forums; the other types
// read the single provisioned forum.
func (f *ForumsScanner) courseForumIDs(ctx context.Context, settings store.Settings) ([]int64, error) {
	if settings.ResponseType == store.ResponseAllForums {
		forums, err := f.forums.CourseForums(ctx, settings.CourseID)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(forums))
		for _, forum := range forums {
			ids = append(ids, forum.ID)
		}
		return ids, nil
	}

	if settings.ForumID == 0 {
		return nil, fmt.Errorf("course %d has no forum provisioned", settings.CourseID)
	}
	return []int64{settings.ForumID}, nil
}

// scanPost processes one posting. It returns ok=false for postings that are
// not new questions for the helper.
func (f *ForumsScanner) scanPost(ctx context.Context, settings store.Settings, post moodle.Post) (answer.Question, bool, error) {
	var zero answer.Question

	seen, err := f.store.PostSeen(ctx, post.ID)
	if err != nil {
		return zero, false, err
	}
	if seen {
		return zero, false, nil
	}

	// A posting is for the helper when its body, subject or discussion title
	// greets the helper by name.
	body := stripHTML(post.Message)
	if !segment.AddressedTo(body, settings.HelperName) &&
		!segment.AddressedTo(post.Subject, settings.HelperName) &&
		!segment.AddressedTo(post.DiscussionName, settings.HelperName) {
		return zero, false, nil
	}

	text := segment.StripGreeting(body, settings.HelperName)

	question := answer.Question{
		CourseID: settings.CourseID,
		Post:     post,
		Text:     text,
	}

	stored := 0
	for _, raw := range segment.Split(text) {
		// Cleaned like the content side so question and corpus n-grams land
		// on the same lexicon words.
		sentence := segment.CleanForExtraction(raw, settings.HelperName)
		if sentence == "" {
			continue
		}

		started := time.Now()
		ngrams, err := f.extractor.Extract(ctx, sentence)
		if err != nil {
			return zero, false, fmt.Errorf("n-gram extraction failed: %w", err)
		}
		taken := time.Since(started).Seconds()

		ids := make([]int64, 0, len(ngrams))
		for _, n := range ngrams {
			posID, err := f.store.GetOrCreatePOS(ctx, n.POS, n.N)
			if err != nil {
				return zero, false, err
			}
			id, err := f.store.GetOrCreateNgram(ctx, n.Text, posID)
			if err != nil {
				return zero, false, err
			}
			ids = append(ids, id)
		}

		if _, err := f.store.InsertQuestionSentence(ctx, settings.CourseID, post.ID, sentence, taken, false, ids); err != nil {
			return zero, false, err
		}

		question.NgramIDs = append(question.NgramIDs, ids...)
		question.TimeTaken += taken
		stored++
	}

	// A greeting-only post (or one whose sentences all clean to nothing)
	// still gets a row so it is not rescanned; it flows through as a question
	// with no n-grams and receives the fixed unable-to-answer reply.
	if stored == 0 {
		if _, err := f.store.InsertQuestionSentence(ctx, settings.CourseID, post.ID, post.Subject, 0, false, nil); err != nil {
			return zero, false, err
		}
	}

	f.logger.Debug("question found",
		"course", settings.CourseID, "post", post.ID, "ngrams", len(question.NgramIDs))
	return question, true, nil
}
