package store

import "time"

// Response type values of a course's settings, selecting which forums the
// forums pass reads.
const (
	// ResponseAllForums scans every forum of the course.
	ResponseAllForums int16 = 1
	// ResponseSpecificForum scans the single forum named by ForumID.
	ResponseSpecificForum int16 = 2
	// ResponseAutoForum scans the helper's own provisioned forum, also
	// named by ForumID.
	ResponseAutoForum int16 = 3
)

// Settings is the per-course configuration controlling scanning and answering.
type Settings struct {
	ID           int64
	CourseID     int64
	ForumID      int64
	Enabled      bool
	HelperName   string
	ResponseType int16
	EnableURL    bool
	EnablePDF    bool
	EnableDOCX   bool
	EnablePPTX   bool
	EnablePage   bool
	CrawlDepth   int
	TopDocs      int
	TopSentences int
}

// Object is one ingested content unit. Module-backed objects carry ModuleID;
// crawled pages below a seed carry only CourseID and URL.
type Object struct {
	ID        int64
	CourseID  int64
	ModuleID  *int64
	Name      string
	URL       *string
	Depth     int
	MimeType  string
	Parsed    bool
	CreatedAt time.Time
}

// Sentence is one stored sentence of a learning object.
type Sentence struct {
	ID        int64
	ObjectID  int64
	Text      string
	TimeTaken float64
}

// QuestionSentence is one sentence of a forum question posting.
type QuestionSentence struct {
	ID        int64
	CourseID  int64
	PostID    int64
	Text      string
	TimeTaken float64
	Answered  bool
}

// Response is one appended reply record, keyed for fingerprint reuse by
// (CourseID, NgramList).
type Response struct {
	ID          int64
	CourseID    int64
	PostID      int64
	ReplyPostID int64
	Question    string
	Summary     string
	NgramList   string
	TimeTaken   float64
	CreatedAt   time.Time
}
