package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call(serviceName+".Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecentPosts returns the operator's latest posts.
func (c *Client) RecentPosts() (*RecentPostsResponse, error) {
	var resp RecentPostsResponse
	if err := c.client.Call(serviceName+".RecentPosts", RecentPostsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePost soft-deletes a post and opens its undo window.
func (c *Client) DeletePost(id int64) (*DeletePostResponse, error) {
	var resp DeletePostResponse
	if err := c.client.Call(serviceName+".DeletePost", DeletePostRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UndoDelete restores the most recently deleted post.
func (c *Client) UndoDelete() (*UndoDeleteResponse, error) {
	var resp UndoDeleteResponse
	if err := c.client.Call(serviceName+".UndoDelete", UndoDeleteRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call(serviceName+".Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call(serviceName+".TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
