package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/henderiw/xtable/internal/logger"
	"github.com/henderiw/xtable/pkg/objtable"
	"github.com/henderiw/xtable/pkg/xtable"
)

// Add stores the request body as a new entry. Labels come from the "labels"
// query ("k=v,..."), an optional "mark" query tags the new entry.
func (h *APIStore) Add(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("error reading body: %v", err))
		return
	}

	l, err := objtable.ParseLabels(c.Query("labels"))
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid labels: %v", err))
		return
	}

	m, marked, err := parseMarkQuery(c, "mark")
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, err.Error())
		return
	}

	item := objtable.Item{Object: objtable.Object{Payload: payload, Labels: l}}
	if marked {
		item.ID, err = h.objects.AddMarked(payload, l, m)
		item.Marks = []xtable.Mark{m}
	} else {
		item.ID, err = h.objects.Add(payload, l)
	}
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Debug("entry added", logger.WithID(item.ID))

	// the entry may already be gone, so answer from what was stored
	c.JSON(http.StatusCreated, toEntryResponse(item))
}

// Remove erases the first entry at or after "start" carrying "mark"
// (default mark 0 from id 0).
func (h *APIStore) Remove(c *gin.Context) {
	m, marked, err := parseMarkQuery(c, "mark")
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !marked {
		m = xtable.Mark0
	}

	start, err := strconv.ParseUint(c.DefaultQuery("start", "0"), 10, 32)
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid start %q", c.Query("start")))
		return
	}

	item, err := h.objects.RemoveMarked(uint32(start), m)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Debug("entry removed", logger.WithID(item.ID), logger.WithMark(m))

	c.JSON(http.StatusOK, toEntryResponse(item))
}

// Read streams a text listing of the entries matching the "selector" query.
func (h *APIStore) Read(c *gin.Context) {
	selector, err := objtable.ParseSelector(c.Query("selector"))
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid selector: %v", err))
		return
	}

	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", h.objects.NewReader(selector), nil)
}

func (h *APIStore) List(c *gin.Context) {
	selector, err := objtable.ParseSelector(c.Query("selector"))
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid selector: %v", err))
		return
	}

	items := h.objects.List(selector)
	entries := make([]EntryResponse, 0, len(items))
	for _, item := range items {
		entries = append(entries, toEntryResponse(item))
	}
	c.JSON(http.StatusOK, entries)
}

func (h *APIStore) GetEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
		return
	}

	item, err := h.objects.Get(id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntryResponse(item))
}

func (h *APIStore) DeleteEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
		return
	}

	o, err := h.objects.Remove(id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Debug("entry erased", logger.WithID(id))

	c.JSON(http.StatusOK, toEntryResponse(objtable.Item{ID: id, Object: o}))
}

func (h *APIStore) SetMark(c *gin.Context) {
	h.changeMark(c, h.objects.Mark)
}

func (h *APIStore) ClearMark(c *gin.Context) {
	h.changeMark(c, h.objects.Unmark)
}

func (h *APIStore) changeMark(c *gin.Context, fn func(uint32, xtable.Mark) error) {
	id, err := parseID(c)
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
		return
	}
	m, err := xtable.ParseMark(c.Param("mark"))
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := fn(id, m); err != nil {
		h.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
