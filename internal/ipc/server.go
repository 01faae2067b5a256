package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"drn/internal/api"
	"drn/internal/logging"
	"drn/internal/news"
)

// ControlPlane is the daemon surface the IPC service drives.
type ControlPlane interface {
	Status(ctx context.Context) api.DaemonStatus
	RecentPosts(ctx context.Context) ([]*news.Post, error)
	DeletePost(ctx context.Context, id int64) (graceSeconds int, err error)
	UndoDelete(ctx context.Context) (int64, error)
	TestNotification(ctx context.Context) (bool, string, error)
	Stop()
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, plane ControlPlane, logger *slog.Logger) (*Server, error) {
	if plane == nil {
		return nil, errors.New("ipc server requires a control plane")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{plane: plane, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket", logging.String("socket", s.path), logging.Error(err))
	}
}

type service struct {
	plane  ControlPlane
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.plane.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockFilePath = status.LockFilePath
	resp.PostCount = status.PostCount
	resp.PendingDelete = status.PendingDelete
	resp.Subscribers = status.Subscribers
	return nil
}

func (s *service) RecentPosts(_ RecentPostsRequest, resp *RecentPostsResponse) error {
	posts, err := s.plane.RecentPosts(s.ctx)
	if err != nil {
		return err
	}
	resp.Posts = api.FromPosts(posts)
	return nil
}

func (s *service) DeletePost(req DeletePostRequest, resp *DeletePostResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid post id %d", req.ID)
	}
	s.log().Debug("delete requested", logging.Int64(logging.FieldPostID, req.ID))
	grace, err := s.plane.DeletePost(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.PostID = req.ID
	resp.UndoGraceSeconds = grace
	s.log().Info("post soft-deleted via IPC", logging.Int64(logging.FieldPostID, req.ID))
	return nil
}

func (s *service) UndoDelete(_ UndoDeleteRequest, resp *UndoDeleteResponse) error {
	id, err := s.plane.UndoDelete(s.ctx)
	if err != nil {
		return err
	}
	resp.PostID = id
	s.log().Info("post restored via IPC", logging.Int64(logging.FieldPostID, id))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.plane.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.plane.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
