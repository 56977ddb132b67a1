// Package rest implements component M: the HTTP surface over the search,
// ingest, stats, rankings, and export operations. Routes are registered on
// an *echo.Echo the way every other service in this stack wires its v1
// group.
//
// Grounded on the teacher's own rest/handler_test.go (whose implementation
// file was never checked in) for the overall Handler/usecase wiring shape,
// and on alt-backend's rest package for the echo.Context error-response
// conventions (JSON {"error": ...} bodies, status codes chosen by error
// type rather than a single catch-all 500).
package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"search-indexer/domain"
	"search-indexer/exportcache"
	"search-indexer/journal"
	"search-indexer/port"
	"search-indexer/router"
	"search-indexer/usecase"
)

// Handler holds every dependency the REST surface dispatches into.
type Handler struct {
	search      *usecase.SearchRecordsUsecase
	router      *router.Router
	journal     *journal.Journal
	exportCache *exportcache.Cache
}

// NewHandler binds a Handler to its usecases and adapters. journal and
// exportCache may be nil to disable the routes that need them.
func NewHandler(search *usecase.SearchRecordsUsecase, r *router.Router, j *journal.Journal, ec *exportcache.Cache) *Handler {
	return &Handler{search: search, router: r, journal: j, exportCache: ec}
}

// RegisterRoutes mounts every operation under /v1.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.GET("/search", h.Search)
	v1.POST("/documents", h.AddDocument)
	v1.DELETE("/documents/:id", h.DeleteDocument)
	v1.GET("/stats", h.Stats)
	v1.GET("/rankings/popular-queries", h.PopularQueries)
	v1.GET("/rankings/popular-keywords", h.PopularKeywords)
	v1.GET("/rankings/user-rankings", h.UserRankings)
	v1.GET("/rankings/stats", h.RankingsStats)
	v1.GET("/users/:username/searches", h.UserSearches)
	v1.GET("/export", h.Export)
}

// SearchResponse is the JSON envelope the search route returns.
type SearchResponse struct {
	GroupedResults []domain.CompanyGroup `json:"grouped_results"`
	TotalFound     int                   `json:"total_found"`
	TotalCompanies int                   `json:"total_companies"`
	SearchTimeMS   float64               `json:"search_time_ms"`
	ProcessedQuery string                `json:"processed_query"`
	Prefecture     string                `json:"prefecture"`
}

// Search handles GET /v1/search?q=...&prefecture=...&user_id=...&limit=...&cust_status=...&sort=...
func (h *Handler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	prefecture := c.QueryParam("prefecture")
	username := c.QueryParam("user_id")
	custStatus := c.QueryParam("cust_status")
	sortKey := c.QueryParam("sort")

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
		}
		limit = n
	}

	result, err := h.search.Execute(c.Request().Context(), username, query, prefecture, limit, custStatus, sortKey)
	if err != nil {
		return respondSearchError(c, err)
	}

	return c.JSON(http.StatusOK, SearchResponse{
		GroupedResults: result.GroupedResults,
		TotalFound:     result.TotalFound,
		TotalCompanies: result.TotalCompanies,
		SearchTimeMS:   result.SearchTimeMS,
		ProcessedQuery: result.ProcessedQuery,
		Prefecture:     result.Prefecture,
	})
}

// AddDocumentRequest is the body POST /v1/documents expects.
type AddDocumentRequest struct {
	Prefecture string        `json:"prefecture"`
	Record     domain.Record `json:"record"`
}

// AddDocument handles POST /v1/documents.
func (h *Handler) AddDocument(c echo.Context) error {
	var req AddDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}

	rec := req.Record
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	if err := h.router.AddDocument(c.Request().Context(), req.Prefecture, &rec); err != nil {
		return respondRouterError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": rec.ID})
}

// DeleteDocument handles DELETE /v1/documents/:id?prefecture=...
func (h *Handler) DeleteDocument(c echo.Context) error {
	id := c.Param("id")
	prefecture := c.QueryParam("prefecture")

	deleted, err := h.router.DeleteDocument(c.Request().Context(), prefecture, id)
	if err != nil {
		return respondRouterError(c, err)
	}
	if deleted == 0 {
		return c.JSON(http.StatusNotFound, errorBody("document not found"))
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/stats?prefecture=... (omit prefecture for the
// aggregate across every configured shard).
func (h *Handler) Stats(c echo.Context) error {
	prefecture := c.QueryParam("prefecture")
	if prefecture == "" {
		all, err := h.router.AllStats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		}
		return c.JSON(http.StatusOK, all)
	}

	stats, err := h.router.StatsFor(c.Request().Context(), prefecture)
	if err != nil {
		return respondRouterError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// PopularQueries handles GET /v1/rankings/popular-queries?limit=10
func (h *Handler) PopularQueries(c echo.Context) error {
	if h.journal == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("rankings are unavailable"))
	}

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
		}
		limit = n
	}

	return c.JSON(http.StatusOK, map[string]any{"queries": h.journal.PopularQueries(limit)})
}

// PopularKeywords handles GET /v1/rankings/popular-keywords?limit=10
func (h *Handler) PopularKeywords(c echo.Context) error {
	if h.journal == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("rankings are unavailable"))
	}

	limit, err := parseLimit(c, 10)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
	}

	return c.JSON(http.StatusOK, map[string]any{"keywords": h.journal.PopularKeywords(limit)})
}

// UserRankings handles GET /v1/rankings/user-rankings?limit=10
func (h *Handler) UserRankings(c echo.Context) error {
	if h.journal == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("rankings are unavailable"))
	}

	limit, err := parseLimit(c, 10)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
	}

	return c.JSON(http.StatusOK, map[string]any{"users": h.journal.UserRankings(limit)})
}

// RankingsStats handles GET /v1/rankings/stats
func (h *Handler) RankingsStats(c echo.Context) error {
	if h.journal == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("rankings are unavailable"))
	}
	return c.JSON(http.StatusOK, h.journal.RankingsStats())
}

// UserSearches handles GET /v1/users/:username/searches?limit=20
func (h *Handler) UserSearches(c echo.Context) error {
	if h.journal == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("rankings are unavailable"))
	}

	limit, err := parseLimit(c, 20)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
	}

	entries, err := h.journal.GetUserSearches(c.Param("username"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{"searches": entries})
}

func parseLimit(c echo.Context, fallback int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// Export handles GET /v1/export?q=...&prefecture=...&cust_status=...
func (h *Handler) Export(c echo.Context) error {
	if h.exportCache == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("export is unavailable"))
	}

	query := c.QueryParam("q")
	prefecture := c.QueryParam("prefecture")
	custStatus := c.QueryParam("cust_status")

	if strings.TrimSpace(query) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("q is required"))
	}

	path, err := h.exportCache.Export(c.Request().Context(), query, prefecture, custStatus)
	if err != nil {
		var routerErr *port.RouterError
		if errors.As(err, &routerErr) {
			return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}

	return c.Attachment(path, "search-export.csv")
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func respondSearchError(c echo.Context, err error) error {
	var queryErr *port.QueryError
	var routerErr *port.RouterError
	switch {
	case errors.As(err, &queryErr):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &routerErr):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func respondRouterError(c echo.Context, err error) error {
	var routerErr *port.RouterError
	if errors.As(err, &routerErr) {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
}
