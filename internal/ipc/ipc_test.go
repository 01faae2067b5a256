package ipc_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"drn/internal/api"
	"drn/internal/ipc"
	"drn/internal/news"
)

type fakePlane struct {
	status   api.DaemonStatus
	recents  []*news.Post
	deleted  []int64
	undoID   int64
	undoErr  error
	stopped  bool
	notified bool
}

func (f *fakePlane) Status(context.Context) api.DaemonStatus { return f.status }

func (f *fakePlane) RecentPosts(context.Context) ([]*news.Post, error) { return f.recents, nil }

func (f *fakePlane) DeletePost(_ context.Context, id int64) (int, error) {
	f.deleted = append(f.deleted, id)
	return 5, nil
}

func (f *fakePlane) UndoDelete(context.Context) (int64, error) {
	if f.undoErr != nil {
		return 0, f.undoErr
	}
	return f.undoID, nil
}

func (f *fakePlane) TestNotification(context.Context) (bool, string, error) {
	f.notified = true
	return true, "test sent", nil
}

func (f *fakePlane) Stop() { f.stopped = true }

func startServer(t *testing.T, plane *fakePlane) *ipc.Client {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "drnd.sock")

	ctx, cancel := context.WithCancel(context.Background())
	server, err := ipc.NewServer(ctx, socket, plane, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStatusRoundTrip(t *testing.T) {
	plane := &fakePlane{status: api.DaemonStatus{
		Running:      true,
		PID:          4242,
		DatabasePath: "/var/lib/drn/news.db",
		PostCount:    17,
		Subscribers:  3,
	}}
	client := startServer(t, plane)

	resp, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !resp.Running || resp.PID != 4242 || resp.PostCount != 17 || resp.Subscribers != 3 {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestRecentPostsConverted(t *testing.T) {
	plane := &fakePlane{recents: []*news.Post{
		{ID: 1, Title: "One", Slug: "one-1", Status: news.StatusPublished, CreatedAt: time.Now()},
		{ID: 2, Title: "Two", Slug: "two-2", Status: news.StatusPublished, CreatedAt: time.Now()},
	}}
	client := startServer(t, plane)

	resp, err := client.RecentPosts()
	if err != nil {
		t.Fatalf("RecentPosts: %v", err)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].Slug != "one-1" {
		t.Fatalf("unexpected posts: %+v", resp.Posts)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	plane := &fakePlane{undoID: 7}
	client := startServer(t, plane)

	del, err := client.DeletePost(7)
	if err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if del.PostID != 7 || del.UndoGraceSeconds != 5 {
		t.Fatalf("unexpected delete response: %+v", del)
	}
	if len(plane.deleted) != 1 || plane.deleted[0] != 7 {
		t.Fatalf("delete never reached the control plane: %v", plane.deleted)
	}

	undo, err := client.UndoDelete()
	if err != nil {
		t.Fatalf("UndoDelete: %v", err)
	}
	if undo.PostID != 7 {
		t.Fatalf("unexpected undo response: %+v", undo)
	}
}

func TestDeleteRejectsBadID(t *testing.T) {
	client := startServer(t, &fakePlane{})
	if _, err := client.DeletePost(0); err == nil {
		t.Fatal("expected error for id 0")
	}
}

func TestUndoErrorPropagates(t *testing.T) {
	plane := &fakePlane{undoErr: errors.New("undo window already closed")}
	client := startServer(t, plane)
	if _, err := client.UndoDelete(); err == nil {
		t.Fatal("expected undo error to propagate")
	}
}

func TestStopReachesPlane(t *testing.T) {
	plane := &fakePlane{}
	client := startServer(t, plane)
	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped || !plane.stopped {
		t.Fatal("stop never reached the control plane")
	}
}
