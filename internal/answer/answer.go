// Package answer builds and posts summary replies to forum questions.
//
// A question is answered in two stages over the course's content index:
// first the most similar learning objects, then the most similar sentences
// within them. Questions whose n-gram fingerprint was answered before reuse
// the earlier summary verbatim instead of ranking again.
package answer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/moodle"
	"github.com/openlms/ask4summary/internal/rank"
	"github.com/openlms/ask4summary/internal/store"
)

// UnableToAnswer is the fixed reply for questions the course material cannot
// answer.
const UnableToAnswer = "Sorry, I am unable to answer your question. I could not find relevant material in this course."

// Question is one forum question ready for answering.
type Question struct {
	CourseID int64
	Post     moodle.Post
	// Text is the cleaned question text.
	Text string
	// NgramIDs holds one id per n-gram occurrence, duplicates included.
	NgramIDs []int64
	// TimeTaken is the accumulated n-gram extraction time in seconds.
	TimeTaken float64
}

// Store is the persistence surface answering needs.
type Store interface {
	ResponseByFingerprint(ctx context.Context, courseID int64, fingerprint string) (*store.Response, error)
	CreateResponse(ctx context.Context, p store.CreateResponseParams) (int64, error)
	ObjectVectors(ctx context.Context, courseID int64, ngramIDs []int64) ([]int64, map[int64]rank.Vector, error)
	SentenceVectors(ctx context.Context, objectIDs, ngramIDs []int64) ([]int64, map[int64]rank.Vector, error)
	SentenceTexts(ctx context.Context, sentenceIDs []int64) (map[int64]string, error)
	InsertQuestionSentence(ctx context.Context, courseID, postID int64, text string, timeTaken float64, answered bool, ngramIDs []int64) (int64, error)
	MarkPostAnswered(ctx context.Context, postID int64) error
}

// Poster posts forum replies.
type Poster interface {
	PostReply(ctx context.Context, parent moodle.Post, subject, message string) (int64, error)
}

// Answerer answers stored questions.
type Answerer struct {
	store  Store
	poster Poster
	logger log.Logger
}

// New creates an Answerer.
func New(st Store, poster Poster, logger log.Logger) *Answerer {
	return &Answerer{store: st, poster: poster, logger: logger}
}

// Fingerprint builds the multiset signature of a question's n-gram
// occurrences: every id, repeated as often as it occurred, sorted ascending
// and joined with dashes. Questions with the same words in any order share a
// fingerprint; questions differing only in repetition do not.
func Fingerprint(ngramIDs []int64) string {
	ids := append([]int64{}, ngramIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "-")
}

// Answer replies to one question and records the exchange. Failures are
// scoped to the question; in particular a private-reply parent aborts this
// question only, reported as moodle.ErrPrivateReply.
func (a *Answerer) Answer(ctx context.Context, settings store.Settings, q Question) error {
	start := time.Now()
	fingerprint := Fingerprint(q.NgramIDs)

	summary, err := a.summaryFor(ctx, settings, q, fingerprint)
	if err != nil {
		return err
	}

	replyID, err := a.poster.PostReply(ctx, q.Post, "Re: "+q.Post.Subject, summary)
	if err != nil {
		return fmt.Errorf("failed to post reply for question %d: %w", q.Post.ID, err)
	}

	// An unable-to-answer reply is not a response: no response row is
	// written and the question stays unanswered, so the same fingerprint
	// ranks fresh once content has been scanned. Only the reply placeholder
	// is stored so forum scans skip our own posting.
	if summary == UnableToAnswer {
		if _, err := a.store.InsertQuestionSentence(ctx, q.CourseID, replyID, summary, 0, true, nil); err != nil {
			return err
		}
		a.logger.Info("could not answer question",
			"course", q.CourseID, "post", q.Post.ID, "reply", replyID)
		return nil
	}

	timeTaken := q.TimeTaken + time.Since(start).Seconds()
	if _, err := a.store.CreateResponse(ctx, store.CreateResponseParams{
		CourseID:    q.CourseID,
		PostID:      q.Post.ID,
		ReplyPostID: replyID,
		Question:    q.Text,
		Summary:     summary,
		NgramList:   fingerprint,
		TimeTaken:   timeTaken,
	}); err != nil {
		return err
	}

	// The reply gets its own sentence row so forum scans never treat our own
	// posting as a new question.
	if _, err := a.store.InsertQuestionSentence(ctx, q.CourseID, replyID, summary, 0, true, nil); err != nil {
		return err
	}
	if err := a.store.MarkPostAnswered(ctx, q.Post.ID); err != nil {
		return err
	}

	a.logger.Info("answered question",
		"course", q.CourseID, "post", q.Post.ID, "reply", replyID,
		"fingerprint", fingerprint, "seconds", timeTaken)
	return nil
}

// summaryFor returns the cached summary for the fingerprint, or ranks the
// course content to assemble a fresh one.
func (a *Answerer) summaryFor(ctx context.Context, settings store.Settings, q Question, fingerprint string) (string, error) {
	if len(q.NgramIDs) == 0 {
		return UnableToAnswer, nil
	}

	cached, err := a.store.ResponseByFingerprint(ctx, q.CourseID, fingerprint)
	if err == nil {
		a.logger.Debug("fingerprint cache hit",
			"course", q.CourseID, "post", q.Post.ID, "prior_post", cached.PostID)
		return cached.Summary, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	question := questionVector(q.NgramIDs)
	dims := dimensionIDs(question)

	objectIDs, objectVectors, err := a.store.ObjectVectors(ctx, q.CourseID, dims)
	if err != nil {
		return "", err
	}
	topObjects := rank.TopK(question, objectIDs, objectVectors, settings.TopDocs)

	winners := make([]int64, 0, len(topObjects))
	for _, s := range topObjects {
		if s.Similarity > 0 {
			winners = append(winners, s.ID)
		}
	}
	if len(winners) == 0 {
		return UnableToAnswer, nil
	}

	sentenceIDs, sentenceVectors, err := a.store.SentenceVectors(ctx, winners, dims)
	if err != nil {
		return "", err
	}
	topSentences := rank.TopK(question, sentenceIDs, sentenceVectors, settings.TopSentences)

	var selected []int64
	for _, s := range topSentences {
		// Zero-similarity sentences never contribute, even when that leaves
		// the summary empty.
		if s.Similarity > 0 {
			selected = append(selected, s.ID)
		}
	}
	if len(selected) == 0 {
		return UnableToAnswer, nil
	}

	texts, err := a.store.SentenceTexts(ctx, selected)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, id := range selected {
		text, ok := texts[id]
		if !ok {
			continue
		}
		b.WriteString(capitalize(strings.TrimRight(text, ".?! ")))
		b.WriteString(".\n")
	}
	if b.Len() == 0 {
		return UnableToAnswer, nil
	}
	return b.String(), nil
}

// questionVector counts the occurrences of each n-gram id.
func questionVector(ngramIDs []int64) rank.Vector {
	v := rank.Vector{}
	for _, id := range ngramIDs {
		v[id]++
	}
	return v
}

// dimensionIDs lists the distinct n-gram ids of a question vector in
// ascending order.
func dimensionIDs(v rank.Vector) []int64 {
	ids := make([]int64, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
