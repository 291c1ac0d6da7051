package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/henderiw/xtable/internal/logger"
	"github.com/henderiw/xtable/pkg/testbuf"
)

func (h *APIStore) OpenSession(c *gin.Context) {
	id := h.sessions.Open()

	h.logger.Debug("session opened", logger.WithSession(id))

	c.JSON(http.StatusCreated, SessionResponse{Session: id})
}

func (h *APIStore) ReleaseSession(c *gin.Context) {
	id := c.Param("session")
	if !h.sessions.Release(id) {
		h.sendAPIStoreError(c, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
		return
	}

	h.logger.Debug("session released", logger.WithSession(id))

	c.Status(http.StatusNoContent)
}

// WriteSession replaces the session buffer with the request body.
func (h *APIStore) WriteSession(c *gin.Context) {
	buf, ok := h.findSession(c)
	if !ok {
		return
	}

	// one byte past the limit is enough to detect an oversized write
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(buf.Limit())+1))
	if err != nil {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("error reading body: %v", err))
		return
	}

	n, err := buf.Write(data)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"written": n})
}

// ReadSession returns up to "size" unread bytes from the session buffer.
func (h *APIStore) ReadSession(c *gin.Context) {
	buf, ok := h.findSession(c)
	if !ok {
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(testbuf.DefaultLimit)))
	if err != nil || size < 0 {
		h.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("invalid size %q", c.Query("size")))
		return
	}

	// a read never returns more than the buffer can hold
	p := make([]byte, min(size, buf.Limit()))
	n, err := buf.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		h.sendError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", p[:n])
}

func (h *APIStore) findSession(c *gin.Context) (*testbuf.Buffer, bool) {
	id := c.Param("session")
	buf, ok := h.sessions.Get(id)
	if !ok {
		h.sendAPIStoreError(c, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
		return nil, false
	}
	return buf, true
}
