package ipc

import "drn/internal/api"

// serviceName is the JSON-RPC service label shared by server and client.
const serviceName = "DRN"

// StatusRequest asks for daemon runtime state.
type StatusRequest struct{}

// StatusResponse reports daemon runtime state.
type StatusResponse struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	DatabasePath  string `json:"databasePath"`
	LockFilePath  string `json:"lockFilePath"`
	PostCount     int    `json:"postCount"`
	PendingDelete int64  `json:"pendingDelete,omitempty"`
	Subscribers   int    `json:"subscribers"`
}

// RecentPostsRequest asks for the operator's latest posts.
type RecentPostsRequest struct{}

// RecentPostsResponse carries the recent-posts list.
type RecentPostsResponse struct {
	Posts []api.Post `json:"posts"`
}

// DeletePostRequest soft-deletes a post.
type DeletePostRequest struct {
	ID int64 `json:"id"`
}

// DeletePostResponse reports the undo window opened by a delete.
type DeletePostResponse struct {
	PostID           int64 `json:"postId"`
	UndoGraceSeconds int   `json:"undoGraceSeconds"`
}

// UndoDeleteRequest restores the most recently deleted post.
type UndoDeleteRequest struct{}

// UndoDeleteResponse reports which post was restored.
type UndoDeleteResponse struct {
	PostID int64 `json:"postId"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
