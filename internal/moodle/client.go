// Package moodle is a lightweight client for the host LMS web-service API.
// It covers the four surfaces the pipeline needs: the course module registry,
// the module content store, forum reading and reply posting.
package moodle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openlms/ask4summary/internal/log"
)

// maxDownloadSize caps module file downloads.
const maxDownloadSize = 64 << 20

// ErrPrivateReply indicates the target posting is a private reply, which the
// helper must never answer publicly.
var ErrPrivateReply = errors.New("post is a private reply")

// Client talks to the Moodle web-service REST endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a Moodle web-service client.
func New(baseURL, token string, logger log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("moodle base URL is required")
	}
	if token == "" {
		return nil, fmt.Errorf("moodle web-service token is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// wsError is the JSON shape Moodle uses for web-service failures.
type wsError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// call performs one web-service function invocation and decodes the result.
func (c *Client) call(ctx context.Context, wsfunction string, params url.Values, result any) error {
	form := url.Values{}
	form.Set("wstoken", c.token)
	form.Set("wsfunction", wsfunction)
	form.Set("moodlewsrestformat", "json")
	for key, values := range params {
		for _, v := range values {
			form.Add(key, v)
		}
	}

	endpoint := c.baseURL + "/webservice/rest/server.php"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", wsfunction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s failed (status %d): %s", wsfunction, resp.StatusCode, string(body))
	}

	// Moodle reports errors as a JSON object with an exception key, still 200.
	var wsErr wsError
	if err := json.Unmarshal(body, &wsErr); err == nil && wsErr.Exception != "" {
		return fmt.Errorf("%s: moodle error %s: %s", wsfunction, wsErr.ErrorCode, wsErr.Message)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s response: %w", wsfunction, err)
		}
	}
	return nil
}

// CourseModules lists the content modules of a course with their attached
// files, using core_course_get_contents.
func (c *Client) CourseModules(ctx context.Context, courseID int64) ([]Module, error) {
	params := url.Values{}
	params.Set("courseid", strconv.FormatInt(courseID, 10))

	var sections []courseSection
	if err := c.call(ctx, "core_course_get_contents", params, &sections); err != nil {
		return nil, err
	}

	var modules []Module
	for _, section := range sections {
		for _, m := range section.Modules {
			mod := Module{
				ID:       m.ID,
				CourseID: courseID,
				Type:     m.ModName,
				Instance: m.Instance,
				Name:     m.Name,
				URL:      m.URL,
			}
			if len(m.Contents) > 0 {
				mod.FileURL = m.Contents[0].FileURL
				mod.MimeType = m.Contents[0].MimeType
				mod.FileName = m.Contents[0].FileName
			}
			modules = append(modules, mod)
		}
	}

	c.logger.Debug("listed course modules", "course", courseID, "count", len(modules))
	return modules, nil
}

// PageContent returns the HTML body of a page module, using
// mod_page_get_pages_by_courses.
func (c *Client) PageContent(ctx context.Context, courseID, instance int64) (string, error) {
	params := url.Values{}
	params.Set("courseids[0]", strconv.FormatInt(courseID, 10))

	var resp struct {
		Pages []struct {
			ID      int64  `json:"id"`
			Content string `json:"content"`
		} `json:"pages"`
	}
	if err := c.call(ctx, "mod_page_get_pages_by_courses", params, &resp); err != nil {
		return "", err
	}

	for _, p := range resp.Pages {
		if p.ID == instance {
			return p.Content, nil
		}
	}
	return "", fmt.Errorf("page instance %d not found in course %d", instance, courseID)
}

// DownloadFile fetches a module file through the webservice file endpoint.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	return data, nil
}

// CourseForums lists the discussion forums of a course.
func (c *Client) CourseForums(ctx context.Context, courseID int64) ([]Forum, error) {
	params := url.Values{}
	params.Set("courseids[0]", strconv.FormatInt(courseID, 10))

	var resp []struct {
		ID     int64  `json:"id"`
		Course int64  `json:"course"`
		Name   string `json:"name"`
	}
	if err := c.call(ctx, "mod_forum_get_forums_by_courses", params, &resp); err != nil {
		return nil, err
	}

	forums := make([]Forum, 0, len(resp))
	for _, f := range resp {
		forums = append(forums, Forum{ID: f.ID, CourseID: f.Course, Name: f.Name})
	}
	return forums, nil
}

// ForumPosts lists every posting of every discussion in a forum.
func (c *Client) ForumPosts(ctx context.Context, forumID int64) ([]Post, error) {
	params := url.Values{}
	params.Set("forumid", strconv.FormatInt(forumID, 10))

	var discResp struct {
		Discussions []struct {
			Discussion int64  `json:"discussion"`
			Name       string `json:"name"`
		} `json:"discussions"`
	}
	if err := c.call(ctx, "mod_forum_get_forum_discussions", params, &discResp); err != nil {
		return nil, err
	}

	var posts []Post
	for _, d := range discResp.Discussions {
		discParams := url.Values{}
		discParams.Set("discussionid", strconv.FormatInt(d.Discussion, 10))

		var postResp struct {
			Posts []struct {
				ID             int64  `json:"id"`
				Subject        string `json:"subject"`
				Message        string `json:"message"`
				HasParent      bool   `json:"hasparent"`
				IsPrivateReply bool   `json:"isprivatereply"`
			} `json:"posts"`
		}
		if err := c.call(ctx, "mod_forum_get_discussion_posts", discParams, &postResp); err != nil {
			return nil, err
		}

		for _, p := range postResp.Posts {
			posts = append(posts, Post{
				ID:             p.ID,
				DiscussionID:   d.Discussion,
				DiscussionName: d.Name,
				Subject:        p.Subject,
				Message:        p.Message,
				HasParent:      p.HasParent,
				IsPrivateReply: p.IsPrivateReply,
			})
		}
	}

	c.logger.Debug("listed forum posts", "forum", forumID, "count", len(posts))
	return posts, nil
}

// PostReply posts a public reply under the given posting and returns the new
// post id. Replying to a private reply is refused locally with
// ErrPrivateReply before any request is made.
func (c *Client) PostReply(ctx context.Context, parent Post, subject, message string) (int64, error) {
	if parent.IsPrivateReply {
		return 0, fmt.Errorf("cannot reply to post %d: %w", parent.ID, ErrPrivateReply)
	}

	params := url.Values{}
	params.Set("postid", strconv.FormatInt(parent.ID, 10))
	params.Set("subject", subject)
	params.Set("message", message)

	var resp struct {
		PostID int64 `json:"postid"`
	}
	if err := c.call(ctx, "mod_forum_add_discussion_post", params, &resp); err != nil {
		return 0, err
	}

	c.logger.Info("posted reply", "parent", parent.ID, "reply", resp.PostID)
	return resp.PostID, nil
}
