package service

import (
	"context"

	"go.uber.org/zap"
)

// Sweep deletes every code that expired at or before now and returns how many
// rows went away. Storage errors are logged and swallowed so a failed sweep
// never blocks the request that triggered it.
func (m *OTPManager) Sweep(ctx context.Context) int64 {
	n, err := m.store.OTPs.DeleteExpired(ctx, m.clock.Now())
	if err != nil {
		zap.L().Error("Failed to cleanup expired codes", zap.Error(err))
		return 0
	}

	if n > 0 {
		zap.L().Debug("Cleaned up expired codes", zap.Int64("count", n))
	}

	return n
}
