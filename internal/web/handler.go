package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uggedal/gitoff/internal"
	"github.com/uggedal/gitoff/internal/git"
)

// Handler serves one request at a time from a fresh view of the scan
// directory. It holds only configuration, so one Handler may serve
// concurrent requests.
type Handler struct {
	config   internal.Config
	renderer *Renderer
	writer   internal.Writer
	tracer   trace.Tracer
}

// NewHandler creates a Handler. Diagnostics go to w and spans to tracer.
func NewHandler(config internal.Config, w internal.Writer, tracer trace.Tracer) (*Handler, error) {
	renderer, err := NewRenderer(RenderOptions{
		Stylesheet:     config.Stylesheet,
		Highlight:      config.Highlight,
		HighlightStyle: config.HighlightStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return &Handler{
		config:   config,
		renderer: renderer,
		writer:   w,
		tracer:   tracer,
	}, nil
}

// Respond renders the page for path. Paths naming something that does not
// exist yield a 404 page. A returned error means the scan directory or a
// repository is broken; no page should be sent for it.
func (h *Handler) Respond(ctx context.Context, path string) (Page, error) {
	ctx, span := h.tracer.Start(ctx, "route", trace.WithAttributes(attribute.String("gitoff.path", path)))
	defer span.End()

	cleanup := internal.NewCleanupManager(h.writer)
	defer cleanup.Execute()

	page, err := h.respond(ctx, path, cleanup)
	if errors.Is(err, git.ErrNotFound) {
		return h.notFound(), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}

	span.SetAttributes(attribute.Int("gitoff.status", page.Status))
	return page, nil
}

func (h *Handler) respond(ctx context.Context, path string, cleanup *internal.CleanupManager) (Page, error) {
	if path == "" || path[0] != '/' {
		return h.notFound(), nil
	}

	reg, err := h.discover(ctx)
	if err != nil {
		return Page{}, err
	}

	req := Route(path, reg)
	switch req.View {
	case ViewNotFound:
		return h.notFound(), nil
	case ViewIndex:
		return h.render(ctx, req, func(context.Context) ([]byte, error) {
			entries, err := reg.Index()
			if err != nil {
				return nil, err
			}
			return h.renderer.Index(entries), nil
		})
	}

	repo, err := req.Repo.Open()
	if err != nil {
		return Page{}, err
	}
	cleanup.Add("repository "+req.Repo.Name, repo.Close)

	return h.render(ctx, req, func(ctx context.Context) ([]byte, error) {
		switch req.View {
		case ViewSummary:
			return h.summary(ctx, req.Repo, repo)
		case ViewLog:
			page, err := repo.Log(git.LogOptions{Revision: req.Arg, PageSize: h.config.LogPageSize})
			if err != nil {
				return nil, err
			}
			return h.renderer.Log(req.Repo, page), nil
		case ViewTree:
			view, err := repo.Tree(req.Arg)
			if err != nil {
				return nil, err
			}
			return h.renderer.Tree(req.Repo, view)
		case ViewCommit:
			detail, err := repo.Commit(ctx, req.Arg)
			if err != nil {
				return nil, err
			}
			return h.renderer.Commit(req.Repo, detail), nil
		default:
			return nil, fmt.Errorf("unhandled view %s", req.View)
		}
	})
}

func (h *Handler) discover(ctx context.Context) (git.Registry, error) {
	_, span := h.tracer.Start(ctx, "discover", trace.WithAttributes(attribute.String("gitoff.scan_dir", h.config.ScanDir)))
	defer span.End()

	reg, err := git.Discover(h.config.ScanDir, git.DiscoverOptions{
		MaxDepth: h.config.MaxDepth,
		NameMax:  h.config.NameMax,
	}, h.writer)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to discover repositories in %q: %w", h.config.ScanDir, err)
	}

	span.SetAttributes(attribute.Int("gitoff.repositories", len(reg)))
	return reg, nil
}

func (h *Handler) render(ctx context.Context, req Request, fn func(context.Context) ([]byte, error)) (Page, error) {
	ctx, span := h.tracer.Start(ctx, "render."+req.View.String(), trace.WithAttributes(
		attribute.String("gitoff.repository", req.Repo.Name),
		attribute.String("gitoff.arg", req.Arg),
	))
	defer span.End()

	body, err := fn(ctx)
	if err != nil {
		if !errors.Is(err, git.ErrNotFound) {
			span.RecordError(err)
		}
		return Page{}, err
	}

	return Page{Status: http.StatusOK, Body: body}, nil
}

func (h *Handler) summary(ctx context.Context, repo git.Repository, handle *git.Handle) ([]byte, error) {
	log, err := handle.Log(git.LogOptions{Limit: h.config.SummaryLogSize})
	if err != nil {
		return nil, err
	}

	tree, err := handle.Tree("")
	if err != nil {
		return nil, err
	}

	refs, err := handle.Refs()
	if err != nil {
		return nil, err
	}

	head, err := handle.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}

	return h.renderer.Summary(repo, SummaryData{Log: log, Tree: tree, Refs: refs, Head: head})
}

func (h *Handler) notFound() Page {
	return Page{Status: http.StatusNotFound, Body: h.renderer.NotFound()}
}

// ServeHTTP serves the page for the request path. Errors that would abort
// a CGI invocation become 500 responses and are logged.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := internal.GenerateRequestID()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		h.writer.Printf("[%s] %s %s %d\n", id.Short(), r.Method, r.URL.Path, http.StatusMethodNotAllowed)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "request", trace.WithAttributes(attribute.String("gitoff.request_id", id.String())))
	defer span.End()

	page, err := h.Respond(ctx, r.URL.Path)
	if err != nil {
		h.writer.Warningf("[%s] %s %s: %v", id.Short(), r.Method, r.URL.Path, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(page.Status)
	if r.Method != http.MethodHead {
		if _, err := w.Write(page.Body); err != nil {
			h.writer.Warningf("[%s] failed to write response: %v", id.Short(), err)
			return
		}
	}

	h.writer.Printf("[%s] %s %s %d\n", id.Short(), r.Method, r.URL.Path, page.Status)
}
