package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/instructionservice"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/preview"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler holds API route handlers.
type Handler struct {
	svc      *instructionservice.Service
	previews *preview.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *instructionservice.Service, previews *preview.Service) *Handler {
	return &Handler{svc: svc, previews: previews}
}

// ListInstructions handles GET /api/instructions.
//
//	@Summary		List instructions filtered by query, tags, and category
//	@Tags			instructions
//	@Produce		json
//	@Param			q			query		string	false	"Free-text search over category, subcategories, and content"
//	@Param			tags		query		string	false	"Comma-separated tag list; 'favorites' restricts to favorites"
//	@Param			category	query		string	false	"Category drill-down"
//	@Param			page		query		int		false	"Cumulative page number (default 1)"
//	@Param			page_size	query		int		false	"Page size (default 20, max 100)"
//	@Success		200			{object}	InstructionPage
//	@Security		BearerAuth
//	@Router			/instructions [get]
func (h *Handler) ListInstructions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := catalog.ParseValues(q)

	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := h.svc.List(r.Context(), state, pageSize, page)
	if err != nil {
		slog.Error("list instructions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if result.Items == nil {
		result.Items = []InstructionListItem{}
	}
	writeJSON(w, http.StatusOK, result)
}

// GetInstruction handles GET /api/instructions/{filename}.
//
//	@Summary		Get a single instruction by filename
//	@Tags			instructions
//	@Produce		json
//	@Param			filename	path		string	true	"Record filename"
//	@Success		200			{object}	InstructionDetail
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/instructions/{filename} [get]
func (h *Handler) GetInstruction(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	detail, err := h.svc.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get instruction failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// SelectInstruction handles POST /api/instructions/{filename}/select.
//
//	@Summary		Record that an instruction was opened
//	@Tags			instructions
//	@Produce		json
//	@Param			filename	path		string	true	"Record filename"
//	@Success		200			{object}	SelectResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/instructions/{filename}/select [post]
func (h *Handler) SelectInstruction(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	count, err := h.svc.Select(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("select instruction failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SelectResponse{Filename: filename, Count: count})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List all tags ordered by record count
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags := h.svc.Tags(r.Context())
	if tags == nil {
		tags = []models.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// ListCategories handles GET /api/categories.
//
//	@Summary		List records grouped by category
//	@Tags			categories
//	@Produce		json
//	@Success		200	{object}	CategoryListResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Categories(r.Context())
	if err != nil {
		slog.Error("list categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if groups == nil {
		groups = []instructionservice.CategoryGroup{}
	}
	writeJSON(w, http.StatusOK, CategoryListResponse{Categories: groups})
}

// ListFavorites handles GET /api/favorites.
//
//	@Summary		List favorited records in favoriting order
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{array}	InstructionListItem
//	@Security		BearerAuth
//	@Router			/favorites [get]
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Favorites(r.Context())
	if err != nil {
		slog.Error("list favorites failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []InstructionListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ToggleFavorite handles POST /api/favorites/{filename}.
//
//	@Summary		Toggle favorite membership for a record
//	@Tags			favorites
//	@Produce		json
//	@Param			filename	path		string	true	"Record filename"
//	@Success		200			{object}	FavoriteToggleResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/favorites/{filename} [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	fav, err := h.svc.ToggleFavorite(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("toggle favorite failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, FavoriteToggleResponse{Filename: filename, Favorite: fav})
}

// TopUsed handles GET /api/stats/top.
//
//	@Summary		List the most-opened records
//	@Tags			stats
//	@Produce		json
//	@Param			limit	query	int	false	"Max results (default 10)"
//	@Success		200		{array}	models.UsageCount
//	@Security		BearerAuth
//	@Router			/stats/top [get]
func (h *Handler) TopUsed(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := h.svc.TopUsed(r.Context(), limit)
	if err != nil {
		slog.Error("top used failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if top == nil {
		top = []models.UsageCount{}
	}
	writeJSON(w, http.StatusOK, top)
}

// ListTools handles GET /api/tools.
//
//	@Summary		List quick-action tools with usage counts
//	@Tags			tools
//	@Produce		json
//	@Success		200	{array}	instructionservice.ToolInfo
//	@Security		BearerAuth
//	@Router			/tools [get]
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.Tools(r.Context())
	if err != nil {
		slog.Error("list tools failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// UseTool handles POST /api/tools/{name}/use.
//
//	@Summary		Record one quick-action invocation of a tool
//	@Tags			tools
//	@Produce		json
//	@Param			name	path		string	true	"Tool name"
//	@Success		200		{object}	ToolUseResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/{name}/use [post]
func (h *Handler) UseTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	count, err := h.svc.UseTool(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody("tool name is required"))
		} else {
			slog.Error("use tool failed", slog.String("name", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ToolUseResponse{Name: name, Count: count})
}

// PickTool handles GET /api/tools/pick.
//
//	@Summary		Recommend a tool by usage with random tie-break
//	@Tags			tools
//	@Produce		json
//	@Success		200	{object}	ToolPickResponse
//	@Security		BearerAuth
//	@Router			/tools/pick [get]
func (h *Handler) PickTool(w http.ResponseWriter, r *http.Request) {
	name, err := h.svc.PickTool(r.Context())
	if err != nil {
		slog.Error("pick tool failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ToolPickResponse{Name: name})
}

// GetPreference handles GET /api/prefs/{key}.
//
//	@Summary		Get a preference value (with defaults for known keys)
//	@Tags			prefs
//	@Produce		json
//	@Param			key	path		string	true	"Preference key"
//	@Success		200	{object}	PreferenceResponse
//	@Security		BearerAuth
//	@Router			/prefs/{key} [get]
func (h *Handler) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.svc.Preference(r.Context(), key)
	if err != nil {
		slog.Error("get preference failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PreferenceResponse{Key: key, Value: value})
}

// SetPreference handles PUT /api/prefs/{key}.
//
//	@Summary		Set a preference value
//	@Tags			prefs
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Preference key"
//	@Param			body	body		PreferenceRequest	true	"Value to store"
//	@Success		200		{object}	PreferenceResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/prefs/{key} [put]
func (h *Handler) SetPreference(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	key := chi.URLParam(r, "key")

	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.SetPreference(r.Context(), key, req.Value); err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		} else {
			slog.Error("set preference failed", slog.String("key", key), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, PreferenceResponse{Key: key, Value: req.Value})
}

// Preview handles GET /api/preview.
//
//	@Summary		Resolve title/description metadata for an external link
//	@Tags			preview
//	@Produce		json
//	@Param			url	query		string	true	"Link URL (http or https)"
//	@Success		200	{object}	models.LinkPreview
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'url' is required"))
		return
	}
	p, err := h.previews.Get(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid url"))
		} else {
			slog.Error("preview failed", slog.String("url", rawURL), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Share handles GET /api/share.
//
//	@Summary		Build the canonical shareable query string for a filter state
//	@Tags			instructions
//	@Produce		json
//	@Param			q			query		string	false	"Free-text search"
//	@Param			tags		query		string	false	"Comma-separated tag list"
//	@Param			category	query		string	false	"Category"
//	@Param			instruction	query		string	false	"Open record filename"
//	@Success		200			{object}	ShareResponse
//	@Security		BearerAuth
//	@Router			/share [get]
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	state := catalog.ParseValues(r.URL.Query())
	writeJSON(w, http.StatusOK, ShareResponse{Query: state.Values().Encode()})
}
