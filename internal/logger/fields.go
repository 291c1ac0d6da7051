package logger

import (
	"go.uber.org/zap"

	"github.com/henderiw/xtable/pkg/xtable"
)

func WithID(id uint32) zap.Field {
	return zap.Uint32("entry.id", id)
}

func WithMark(m xtable.Mark) zap.Field {
	return zap.Stringer("entry.mark", m)
}

func WithSession(sessionID string) zap.Field {
	return zap.String("session.id", sessionID)
}

func WithLimit(limit xtable.Limit) zap.Field {
	return zap.Stringer("id.range", limit)
}
