package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jaekwang-park/listo/internal/middleware"
	"github.com/jaekwang-park/listo/internal/model"
)

// Handler serves the checklist API from a Backend.
type Handler struct {
	store Backend
}

func NewHandler(store Backend) *Handler {
	return &Handler{store: store}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userBody struct {
	User model.User `json:"user"`
}

// user serves GET and POST /user.
func (h *Handler) user(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r)
	switch r.Method {
	case http.MethodGet:
		u, err := h.store.User(r.Context(), id.UserID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userBody{User: u})
	case http.MethodPost:
		u, err := h.store.EnsureUser(r.Context(), id.UserID, id.Email, id.Picture)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userBody{User: u})
	default:
		methodNotAllowed(w)
	}
}

type checklistsBody struct {
	Checklists []model.Checklist `json:"checklists"`
}

// checklists serves GET /checklists and GET /checklists/shared.
func (h *Handler) checklists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID := middleware.UserID(r)
	var (
		lists []model.Checklist
		err   error
	)
	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/checklists"), "/") {
	case "":
		lists, err = h.store.Lists(r.Context(), userID)
	case "shared":
		lists, err = h.store.SharedLists(r.Context(), userID)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checklistsBody{Checklists: lists})
}

type checklistBody struct {
	Checklist model.Checklist `json:"checklist"`
}

type titleRequest struct {
	Title  string `json:"title"`
	Locked bool   `json:"locked"`
}

type itemRequest struct {
	Content  string `json:"content"`
	Checked  bool   `json:"checked"`
	Ordering int    `json:"ordering"`
}

type itemBody struct {
	Item model.Item `json:"item"`
}

// checklist routes everything under /checklist:
//
//	POST   /checklist
//	POST   /checklist/share/{code}
//	GET    /checklist/{id}/share
//	DELETE /checklist/{id}/shared/user
//	GET|PUT|DELETE /checklist/{id}[/shared]
//	POST   /checklist/{id}[/shared]/item
//	PUT|DELETE /checklist/{id}[/shared]/item/{itemID}
//	PUT    /checklist/{id}[/shared]/items?checked=
func (h *Handler) checklist(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/checklist"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.createChecklist(w, r, userID)
		return
	}

	if parts[0] == "share" && len(parts) == 2 {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := h.store.Join(r.Context(), userID, parts[1]); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id, rest := parts[0], parts[1:]
	if len(rest) == 1 && rest[0] == "share" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		code, err := h.store.ShareCode(r.Context(), userID, id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"code": code})
		return
	}

	shared := len(rest) > 0 && rest[0] == "shared"
	if shared {
		rest = rest[1:]
	}

	switch {
	case len(rest) == 0:
		h.checklistResource(w, r, userID, id, shared)
	case len(rest) == 1 && rest[0] == "user" && shared:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if err := h.store.Leave(r.Context(), userID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(rest) == 1 && rest[0] == "item":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.createItem(w, r, userID, id, shared)
	case len(rest) == 2 && rest[0] == "item":
		h.itemResource(w, r, userID, id, shared, rest[1])
	case len(rest) == 1 && rest[0] == "items":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		h.toggleAll(w, r, userID, id, shared)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}

func (h *Handler) createChecklist(w http.ResponseWriter, r *http.Request, userID string) {
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	cl, err := h.store.CreateList(r.Context(), userID, req.Title)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checklistBody{Checklist: cl})
}

func (h *Handler) checklistResource(w http.ResponseWriter, r *http.Request, userID, id string, shared bool) {
	switch r.Method {
	case http.MethodGet:
		detail, err := h.store.List(r.Context(), userID, id, shared)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	case http.MethodPut:
		var req titleRequest
		if !decode(w, r, &req) {
			return
		}
		cl, err := h.store.UpdateList(r.Context(), userID, id, shared, req.Title, req.Locked)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checklistBody{Checklist: cl})
	case http.MethodDelete:
		if shared {
			methodNotAllowed(w)
			return
		}
		if err := h.store.DeleteList(r.Context(), userID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request, userID, id string, shared bool) {
	var req itemRequest
	if !decode(w, r, &req) {
		return
	}
	it, err := h.store.CreateItem(r.Context(), userID, id, shared, req.Content, req.Ordering)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemBody{Item: it})
}

func (h *Handler) itemResource(w http.ResponseWriter, r *http.Request, userID, id string, shared bool, itemID string) {
	switch r.Method {
	case http.MethodPut:
		var req itemRequest
		if !decode(w, r, &req) {
			return
		}
		it, err := h.store.UpdateItem(r.Context(), userID, id, shared, model.Item{
			ID:       itemID,
			Content:  req.Content,
			Checked:  req.Checked,
			Ordering: req.Ordering,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, itemBody{Item: it})
	case http.MethodDelete:
		if err := h.store.DeleteItem(r.Context(), userID, id, shared, itemID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) toggleAll(w http.ResponseWriter, r *http.Request, userID, id string, shared bool) {
	checked, err := strconv.ParseBool(r.URL.Query().Get("checked"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "checked must be true or false")
		return
	}
	if err := h.store.ToggleAll(r.Context(), userID, id, shared, checked); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
