package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"drn/internal/api"
	"drn/internal/composer"
	"drn/internal/feed"
	"drn/internal/logging"
	"drn/internal/news"
	"drn/internal/realtime"
	"drn/internal/services"
	"drn/internal/services/mediastore"
)

// commentBurst and commentInterval bound anonymous comment submission.
const (
	commentBurst    = 5
	commentInterval = 2 * time.Second
)

type apiServer struct {
	daemon     *Daemon
	publicBase string
	limiter    *rate.Limiter

	listener net.Listener
	server   *http.Server
}

func newAPIServer(d *Daemon, publicBase string) *apiServer {
	srv := &apiServer{
		daemon:     d,
		publicBase: publicBase,
		limiter:    rate.NewLimiter(rate.Every(commentInterval), commentBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/feed", srv.handleFeed)
	mux.HandleFunc("/api/posts", srv.handlePublish)
	mux.HandleFunc("/api/posts/", srv.handlePost)
	mux.HandleFunc("/api/comments", srv.handleComment)
	mux.HandleFunc("/api/reactions", srv.handleReaction)
	mux.Handle("/ws/comments", realtime.NewWebsocketHandler(d.hub, d.logger))

	if d.local != nil {
		mux.Handle("/api/upload", mediastore.NewIntentHandler(d.local, mediastore.IntentHandlerOptions{
			KeyPrefix:     d.cfg.Storage.KeyPrefix,
			PublicBaseURL: publicBase,
			SignTTL:       time.Duration(d.cfg.Storage.SignTTL) * time.Second,
		}, d.logger))
		mux.Handle("/media/put/", d.local.PutHandler())
		mux.Handle("/media/", d.local.FileHandler())
	}

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context, listener net.Listener) {
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	mode := news.SortRecency
	if value := strings.TrimSpace(query.Get("sort")); value != "" {
		mode = news.SortMode(value)
		if !news.ValidSortMode(mode) {
			s.writeError(w, http.StatusBadRequest, "unknown sort mode")
			return
		}
	}
	pageNum := 1
	if value := query.Get("page"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid page number")
			return
		}
		pageNum = parsed
	}

	pageSize := s.daemon.cfg.Feed.PageSize
	page, err := feed.FetchPage(r.Context(), s.daemon.store, mode, pageSize, (pageNum-1)*pageSize)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filters := feed.Filters{
		Category: strings.TrimSpace(query.Get("category")),
		Location: strings.TrimSpace(query.Get("location")),
		Query:    strings.TrimSpace(query.Get("q")),
	}

	resp := api.FeedPage{HasMore: page.HasMore}
	for _, post := range page.Posts {
		if !filters.Empty() && !filters.Matches(post) {
			continue
		}
		resp.Posts = append(resp.Posts, s.postDTO(post, page))
	}
	for _, post := range page.Breaking {
		resp.Breaking = append(resp.Breaking, s.postDTO(post, page))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) postDTO(post *news.Post, page *feed.Page) api.Post {
	dto := api.FromPost(post)
	dto.Reactions = api.FromReactionCounts(page.Counts[post.ID])
	dto.Comments = page.Comments[post.ID]
	dto.Bookmarked = s.daemon.marks.Contains(post.ID)
	return dto
}

// handlePost dispatches /api/posts/{slug} reads and the /delete and /undo
// actions addressed by post id.
func (s *apiServer) handlePost(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}

	if action, ok := strings.CutSuffix(rest, "/delete"); ok {
		s.handleDelete(w, r, action)
		return
	}
	if action, ok := strings.CutSuffix(rest, "/undo"); ok {
		s.handleUndo(w, r, action)
		return
	}
	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	s.handlePostDetail(w, r, rest)
}

func (s *apiServer) handlePostDetail(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	post, err := s.daemon.store.GetBySlug(r.Context(), slug)
	if errors.Is(err, news.ErrPostNotFound) {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A detail load counts as a view.
	if views, verr := s.daemon.store.IncrementViews(r.Context(), post.ID); verr == nil {
		post.Views = views
	}

	comments, err := s.daemon.store.ListComments(r.Context(), slug)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reactions, err := s.daemon.store.ListReactions(r.Context(), []int64{post.ID})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto := api.FromPost(post)
	dto.Reactions = api.FromReactionCounts(news.CountReactions(reactions)[post.ID])
	dto.Comments = len(comments)
	dto.Bookmarked = s.daemon.marks.Contains(post.ID)
	s.writeJSON(w, http.StatusOK, api.PostDetail{Post: dto, Comments: api.FromComments(comments)})
}

// PublishRequest is the POST /api/posts payload.
type PublishRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Breaking    bool     `json:"breaking"`
	ScheduledAt string   `json:"scheduledAt"`
	MediaURLs   []string `json:"mediaUrls"`
}

func (s *apiServer) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var scheduledAt *time.Time
	if value := strings.TrimSpace(req.ScheduledAt); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "scheduledAt must be RFC3339")
			return
		}
		scheduledAt = &parsed
	}

	if err := s.daemon.composer.Update(func(d *composer.Draft) {
		d.Title = req.Title
		d.Content = req.Content
		d.Summary = req.Summary
		d.Category = req.Category
		d.Location = req.Location
		d.Breaking = req.Breaking
		d.ScheduledAt = scheduledAt
		d.Media = d.Media[:0]
		for _, url := range req.MediaURLs {
			d.Media = append(d.Media, composer.MediaItem{FileURL: url})
		}
	}); err != nil {
		s.writeServiceError(w, err)
		return
	}

	post, err := s.daemon.composer.Publish(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromPost(post))
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	grace, err := s.daemon.DeletePost(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{PostID: id, UndoGraceSeconds: grace})
}

func (s *apiServer) handleUndo(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, err := strconv.ParseInt(idStr, 10, 64); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	id, err := s.daemon.UndoDelete(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.UndoResponse{PostID: id})
}

// CommentRequest is the POST /api/comments payload.
type CommentRequest struct {
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
}

func (s *apiServer) handleComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "too many comments, slow down")
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	comment, err := s.daemon.engine.SubmitComment(r.Context(), req.Slug, req.Content, req.AuthorName)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromComment(comment))
}

// ReactionRequest is the POST /api/reactions payload.
type ReactionRequest struct {
	PostID int64  `json:"postId"`
	Type   string `json:"type"`
}

func (s *apiServer) handleReaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	counts, err := s.daemon.engine.React(r.Context(), req.PostID, news.ReactionType(req.Type))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReactionCounts(counts))
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAuthorization):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUpload):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.daemon != nil && s.daemon.logger != nil {
		return s.daemon.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
