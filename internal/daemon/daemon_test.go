package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"drn/internal/api"
	"drn/internal/logging"
	"drn/internal/services/authsvc"
	"drn/internal/testsupport"
)

const testUser = "journalist-1"

func startDaemon(t *testing.T, opts ...Option) (*Daemon, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	opts = append([]Option{
		WithAuthService(authsvc.Static(authsvc.User{ID: testUser, Email: "desk@example.com"})),
	}, opts...)

	d, err := New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return d, "http://" + d.Addr()
}

func postJSON(t *testing.T, url string, payload any, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func publishPost(t *testing.T, baseURL, title string) api.Post {
	t.Helper()

	var post api.Post
	status := postJSON(t, baseURL+"/api/posts", PublishRequest{
		Title:    title,
		Content:  fmt.Sprintf("<p>%s</p>", title),
		Summary:  title + " summary",
		Category: "world",
		Location: "Test City",
	}, &post)
	if status != http.StatusCreated {
		t.Fatalf("publish %q: status = %d, want 201", title, status)
	}
	// Slugs embed the publish millisecond; spacing the posts keeps creation
	// timestamps distinct so ordering assertions hold.
	time.Sleep(5 * time.Millisecond)
	return post
}

func TestDaemonStartStop(t *testing.T) {
	d, baseURL := startDaemon(t)

	var status api.DaemonStatus
	if code := getJSON(t, baseURL+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", code)
	}
	if !status.Running {
		t.Fatal("status.Running = false, want true")
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("status missing paths: %+v", status)
	}

	d.Stop()
	if _, err := http.Get(baseURL + "/api/status"); err == nil {
		t.Fatal("API still reachable after Stop")
	}
}

func TestDaemonSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second instance started despite held lock")
	}
}

func TestPublishAndFeedOverHTTP(t *testing.T) {
	_, baseURL := startDaemon(t)

	publishPost(t, baseURL, "Harbor Expansion Approved")
	second := publishPost(t, baseURL, "Transit Strike Ends")

	var page api.FeedPage
	if code := getJSON(t, baseURL+"/api/feed", &page); code != http.StatusOK {
		t.Fatalf("feed endpoint = %d, want 200", code)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("feed returned %d posts, want 2", len(page.Posts))
	}
	if page.Posts[0].ID != second.ID {
		t.Fatalf("feed[0] = %q, want newest post first", page.Posts[0].Title)
	}
	if page.HasMore {
		t.Fatal("HasMore = true with a single short page")
	}

	var filtered api.FeedPage
	getJSON(t, baseURL+"/api/feed?q=transit", &filtered)
	if len(filtered.Posts) != 1 || filtered.Posts[0].ID != second.ID {
		t.Fatalf("q=transit matched %d posts, want just the strike story", len(filtered.Posts))
	}
}

func TestPostDetailCountsView(t *testing.T) {
	_, baseURL := startDaemon(t)
	post := publishPost(t, baseURL, "Reservoir Levels Recover")

	var detail api.PostDetail
	if code := getJSON(t, baseURL+"/api/posts/"+post.Slug, &detail); code != http.StatusOK {
		t.Fatalf("detail endpoint = %d, want 200", code)
	}
	if detail.Post.Views != 1 {
		t.Fatalf("Views = %d after first read, want 1", detail.Post.Views)
	}

	getJSON(t, baseURL+"/api/posts/"+post.Slug, &detail)
	if detail.Post.Views != 2 {
		t.Fatalf("Views = %d after second read, want 2", detail.Post.Views)
	}

	if code := getJSON(t, baseURL+"/api/posts/no-such-story-1", nil); code != http.StatusNotFound {
		t.Fatalf("unknown slug = %d, want 404", code)
	}
}

func TestDeleteThenUndoOverHTTP(t *testing.T) {
	_, baseURL := startDaemon(t)
	post := publishPost(t, baseURL, "Court Ruling Expected Friday")

	var deleted api.DeleteResponse
	url := fmt.Sprintf("%s/api/posts/%d/delete", baseURL, post.ID)
	if code := postJSON(t, url, nil, &deleted); code != http.StatusOK {
		t.Fatalf("delete = %d, want 200", code)
	}
	if deleted.UndoGraceSeconds <= 0 {
		t.Fatalf("UndoGraceSeconds = %d, want positive", deleted.UndoGraceSeconds)
	}

	var page api.FeedPage
	getJSON(t, baseURL+"/api/feed", &page)
	if len(page.Posts) != 0 {
		t.Fatalf("deleted post still listed in feed: %d posts", len(page.Posts))
	}

	var restored api.UndoResponse
	url = fmt.Sprintf("%s/api/posts/%d/undo", baseURL, post.ID)
	if code := postJSON(t, url, nil, &restored); code != http.StatusOK {
		t.Fatalf("undo = %d, want 200", code)
	}
	if restored.PostID != post.ID {
		t.Fatalf("undo restored post %d, want %d", restored.PostID, post.ID)
	}

	getJSON(t, baseURL+"/api/feed", &page)
	if len(page.Posts) != 1 {
		t.Fatalf("restored post missing from feed: %d posts", len(page.Posts))
	}

	if code := postJSON(t, url, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second undo = %d, want 404", code)
	}
}

func TestCommentAndReactionOverHTTP(t *testing.T) {
	_, baseURL := startDaemon(t)
	post := publishPost(t, baseURL, "Stadium Reopens After Repairs")

	var comment api.Comment
	code := postJSON(t, baseURL+"/api/comments", CommentRequest{
		Slug:    post.Slug,
		Content: "Great to see it back.",
	}, &comment)
	if code != http.StatusCreated {
		t.Fatalf("comment = %d, want 201", code)
	}
	if comment.AuthorName != "Anonymous" {
		t.Fatalf("AuthorName = %q, want Anonymous default", comment.AuthorName)
	}

	var counts api.ReactionCounts
	code = postJSON(t, baseURL+"/api/reactions", ReactionRequest{
		PostID: post.ID,
		Type:   "like",
	}, &counts)
	if code != http.StatusOK {
		t.Fatalf("reaction = %d, want 200", code)
	}
	if counts.Like != 1 {
		t.Fatalf("Like = %d, want 1", counts.Like)
	}

	var detail api.PostDetail
	getJSON(t, baseURL+"/api/posts/"+post.Slug, &detail)
	if detail.Post.Comments != 1 {
		t.Fatalf("detail comment count = %d, want 1", detail.Post.Comments)
	}
	if detail.Post.Reactions.Like != 1 {
		t.Fatalf("detail like count = %d, want 1", detail.Post.Reactions.Like)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].Content != "Great to see it back." {
		t.Fatalf("detail comments = %+v", detail.Comments)
	}
}

func TestCommentRateLimitOverHTTP(t *testing.T) {
	_, baseURL := startDaemon(t)
	post := publishPost(t, baseURL, "Rate Limited Story")

	sawTooMany := false
	for i := 0; i < commentBurst+2; i++ {
		code := postJSON(t, baseURL+"/api/comments", CommentRequest{
			Slug:    post.Slug,
			Content: fmt.Sprintf("comment %d", i),
		}, nil)
		if code == http.StatusTooManyRequests {
			sawTooMany = true
			break
		}
		if code != http.StatusCreated {
			t.Fatalf("comment %d = %d, want 201 or 429", i, code)
		}
	}
	if !sawTooMany {
		t.Fatal("burst of comments was never throttled")
	}
}

func TestPublishValidationOverHTTP(t *testing.T) {
	_, baseURL := startDaemon(t)

	code := postJSON(t, baseURL+"/api/posts", PublishRequest{
		Title:    "   ",
		Content:  "<p>body</p>",
		Category: "world",
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("blank title = %d, want 400", code)
	}

	// A failed publish parks the workflow in its failed state; the next
	// publish request must still be able to edit and retry.
	var post api.Post
	code = postJSON(t, baseURL+"/api/posts", PublishRequest{
		Title:    "Recovered Story",
		Content:  "<p>body</p>",
		Category: "world",
	}, &post)
	if code != http.StatusCreated {
		t.Fatalf("retry after validation failure = %d, want 201", code)
	}
	if !strings.HasPrefix(post.Slug, "recovered-story-") {
		t.Fatalf("Slug = %q, want recovered-story-<ms>", post.Slug)
	}
}
