package handler

import (
    "context"       // provides context with cancellation for DB calls
    "encoding/json" // raw payload validation
    "net/http"      // HTTP status codes and primitives
    "strconv"       // query and path parameter parsing
    "strings"       // string manipulation utilities
    "time"          // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/hand-pose-trainer/internal/middleware" // resolved request identity
    "github.com/iliyamo/hand-pose-trainer/internal/model"      // resource kinds and rows
    "github.com/iliyamo/hand-pose-trainer/internal/repository" // resource repository
)

// ResourceHandler serves one kind of owned resource (models, mappings or
// sequences). The three route groups share this handler; only the
// repository's kind differs, which keeps the save/visibility/delete rules
// identical across kinds.
type ResourceHandler struct {
	Repo *repository.ResourceRepo
}

func NewResourceHandler(repo *repository.ResourceRepo) *ResourceHandler {
	return &ResourceHandler{Repo: repo}
}

// ----- DTOs -----

type saveResourceReq struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	IsPublic    bool            `json:"is_public"`
	IsActive    *bool           `json:"is_active"`
}

type visibilityReq struct {
	IsPublic *bool `json:"is_public"`
}

type resourceResp struct {
	ID          uint64          `json:"id"`
	OwnerID     uint64          `json:"owner_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	IsActive    bool            `json:"is_active"`
	IsPublic    bool            `json:"is_public"`
	CreatedAt   time.Time       `json:"created_at"`
	Author      string          `json:"author"`
}

func toResourceResp(r model.Resource) resourceResp {
	return resourceResp{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Description: r.Description,
		Payload:     r.Payload,
		IsActive:    r.IsActive,
		IsPublic:    r.IsPublic,
		CreatedAt:   r.CreatedAt,
		Author:      r.Author,
	}
}

// resourceSummary is the listing shape: everything but the payload.
// Payloads (model weights and the like) are only shipped by the detail
// endpoint, so a feed page stays small no matter what it lists.
type resourceSummary struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	Author      string    `json:"author"`
}

func toResourceList(rs []model.Resource) []resourceSummary {
	out := make([]resourceSummary, 0, len(rs))
	for _, r := range rs {
		out = append(out, resourceSummary{
			ID:          r.ID,
			OwnerID:     r.OwnerID,
			Name:        r.Name,
			Description: r.Description,
			IsActive:    r.IsActive,
			IsPublic:    r.IsPublic,
			CreatedAt:   r.CreatedAt,
			Author:      r.Author,
		})
	}
	return out
}

// ListMine returns every resource of this kind owned by the caller,
// public and private alike, newest first. Listings carry metadata
// only; the payload comes from the detail endpoint.
func (h *ResourceHandler) ListMine(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rs, err := h.Repo.ListByOwner(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toResourceList(rs))
}

// ListPublic returns the community feed: public resources of this kind
// from all users, with optional name search and paging. No auth needed.
func (h *ResourceHandler) ListPublic(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rs, err := h.Repo.ListPublic(ctx, search, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toResourceList(rs))
}

// Get returns a single resource by id. A private resource is visible to
// its owner only; anyone else gets the same 404 as for a missing id, so
// the response does not confirm that the id exists.
func (h *ResourceHandler) Get(c echo.Context) error {
	rid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Repo.GetDetail(ctx, rid)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.Repo.Kind.Singular + " not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !r.IsPublic {
		id, ok := middleware.CurrentIdentity(c)
		if !ok || id.UserID != r.OwnerID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.Repo.Kind.Singular + " not found"})
		}
	}
	return c.JSON(http.StatusOK, toResourceResp(r))
}

// Save creates or replaces the caller's resource with the given name.
// Saving under an existing name overwrites that row in place, so the id
// and any community links to it survive the update.
func (h *ResourceHandler) Save(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req saveResourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if len(req.Payload) == 0 || !json.Valid(req.Payload) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payload must be valid JSON"})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Repo.Save(ctx, id.UserID, repository.SaveInput{
		Name:        req.Name,
		Description: req.Description,
		Payload:     req.Payload,
		IsPublic:    req.IsPublic,
		IsActive:    active,
	})
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "save conflicted with a concurrent write, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, toResourceResp(r))
}

// Delete removes the caller's resource. Deleting someone else's resource
// is refused outright rather than hidden: the owner already proved the
// id exists by supplying it, so a 403 leaks nothing new.
func (h *ResourceHandler) Delete(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	rid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Repo.Delete(ctx, rid, id.UserID); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": h.Repo.Kind.Singular + " not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// SetVisibility flips a resource between public and private. Only the
// owner may do this.
func (h *ResourceHandler) SetVisibility(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	rid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req visibilityReq
	if err := c.Bind(&req); err != nil || req.IsPublic == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_public required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Repo.SetVisibility(ctx, rid, id.UserID, *req.IsPublic)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": h.Repo.Kind.Singular + " not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toResourceResp(r))
}
