package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Post describes a news post in a transport-friendly format.
type Post struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Content      string         `json:"content,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Category     string         `json:"category,omitempty"`
	Location     string         `json:"location,omitempty"`
	MediaURLs    []string       `json:"mediaUrls,omitempty"`
	Status       string         `json:"status"`
	CreatedAt    string         `json:"createdAt,omitempty"`
	PublishedAgo string         `json:"publishedAgo,omitempty"`
	ScheduledAt  string         `json:"scheduledAt,omitempty"`
	Views        int64          `json:"views"`
	Breaking     bool           `json:"breaking"`
	Reactions    ReactionCounts `json:"reactions"`
	Comments     int            `json:"comments"`
	Bookmarked   bool           `json:"bookmarked"`
}

// ReactionCounts aggregates reactions per post.
type ReactionCounts struct {
	Like    int `json:"like"`
	Dislike int `json:"dislike"`
	Save    int `json:"save"`
}

// Comment describes a post comment.
type Comment struct {
	ID         int64  `json:"id"`
	PostID     int64  `json:"postId"`
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
	Verified   bool   `json:"verified"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// FeedPage is one page of the public feed plus the breaking subset derived
// from it.
type FeedPage struct {
	Posts    []Post `json:"posts"`
	Breaking []Post `json:"breaking,omitempty"`
	HasMore  bool   `json:"hasMore"`
}

// PostDetail wraps a single post with its comments.
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// RecentPostsResponse wraps the composer's recent-posts list.
type RecentPostsResponse struct {
	Posts []Post `json:"posts"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	DatabasePath  string `json:"databasePath"`
	LockFilePath  string `json:"lockFilePath"`
	PostCount     int    `json:"postCount"`
	PendingDelete int64  `json:"pendingDelete,omitempty"`
	Subscribers   int    `json:"subscribers"`
}

// DeleteResponse reports a soft delete and its undo window.
type DeleteResponse struct {
	PostID           int64 `json:"postId"`
	UndoGraceSeconds int   `json:"undoGraceSeconds"`
}

// UndoResponse reports a successful restore.
type UndoResponse struct {
	PostID int64 `json:"postId"`
}
