package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henderiw/xtable/pkg/objtable"
	"github.com/henderiw/xtable/pkg/testbuf"
	"github.com/henderiw/xtable/pkg/xtable"
)

type APIError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

type EntryResponse struct {
	ID      uint32            `json:"id"`
	Payload string            `json:"payload"`
	Labels  map[string]string `json:"labels,omitempty"`
	Marks   []int             `json:"marks,omitempty"`
}

type SessionResponse struct {
	Session string `json:"session"`
}

type APIStore struct {
	logger   *zap.Logger
	objects  objtable.ObjectTable
	sessions *testbuf.Sessions
}

func NewAPIStore(logger *zap.Logger, objects objtable.ObjectTable, sessions *testbuf.Sessions) *APIStore {
	return &APIStore{
		logger:   logger,
		objects:  objects,
		sessions: sessions,
	}
}

func (h *APIStore) sendAPIStoreError(c *gin.Context, code int, message string) {
	apiErr := APIError{
		Code:    int32(code),
		Message: message,
	}

	c.Error(errors.New(message))
	c.AbortWithStatusJSON(code, apiErr)
}

// sendError maps registry and buffer errors onto status codes.
func (h *APIStore) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, xtable.ErrNotFound):
		h.sendAPIStoreError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, xtable.ErrResourceExhausted):
		h.sendAPIStoreError(c, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, testbuf.ErrRange):
		h.sendAPIStoreError(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.logger.Error("unexpected error", zap.Error(err), zap.String("path", c.FullPath()))
		h.sendAPIStoreError(c, http.StatusInternalServerError, err.Error())
	}
}

func toEntryResponse(item objtable.Item) EntryResponse {
	marks := make([]int, 0, len(item.Marks))
	for _, m := range item.Marks {
		marks = append(marks, int(m))
	}
	return EntryResponse{
		ID:      item.ID,
		Payload: string(item.Object.Payload),
		Labels:  item.Object.Labels,
		Marks:   marks,
	}
}

func parseID(c *gin.Context) (uint32, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

// parseMarkQuery reads an optional mark from the query; ok is false when the
// parameter is absent.
func parseMarkQuery(c *gin.Context, key string) (m xtable.Mark, ok bool, err error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return 0, false, nil
	}
	m, err = xtable.ParseMark(v)
	return m, true, err
}
