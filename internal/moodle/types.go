package moodle

// Module type names as reported by the course module registry.
const (
	ModulePage     = "page"
	ModuleResource = "resource"
	ModuleURL      = "url"
)

// Module is one content module of a course.
type Module struct {
	ID       int64
	CourseID int64
	// Type is the module kind: "page", "resource", "url" and others.
	Type     string
	Instance int64
	Name     string
	URL      string

	// File metadata of the first attached content, for resource modules.
	FileURL  string
	MimeType string
	FileName string
}

// Forum is one discussion forum of a course.
type Forum struct {
	ID       int64
	CourseID int64
	Name     string
}

// Post is one forum posting.
type Post struct {
	ID             int64
	DiscussionID   int64
	DiscussionName string
	Subject        string
	Message        string
	HasParent      bool
	IsPrivateReply bool
}

// courseSection mirrors the core_course_get_contents response shape.
type courseSection struct {
	ID      int64 `json:"id"`
	Modules []struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Instance int64  `json:"instance"`
		ModName  string `json:"modname"`
		URL      string `json:"url"`
		Contents []struct {
			FileName string `json:"filename"`
			FileURL  string `json:"fileurl"`
			MimeType string `json:"mimetype"`
		} `json:"contents"`
	} `json:"modules"`
}
