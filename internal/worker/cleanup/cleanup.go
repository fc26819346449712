// Package cleanup は失効したログインセッションの自動削除ジョブを提供する。
// アイドルタイムアウトを超過した非主使用者セッションを定期バッチで削除する。
// resolve時のlazy expiryの補完であり、二度と参照されないセッション
// （放置されたブラウザセッション等）がストアに蓄積するのを防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionSweeper は失効セッションの一括削除に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionSweeper interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepRecorder は掃除による削除件数を記録するインターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type SweepRecorder interface {
	RecordSessionsSwept(count int64)
}

// CleanupJob は失効セッションの定期削除ジョブ。
// 冪等な削除処理であり、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	sessions SessionSweeper
	logger   *slog.Logger

	// IdleTimeout はセッションの失効判定に使うアイドル時間。
	IdleTimeout time.Duration
	// Interval はStartのループ実行間隔。
	Interval time.Duration
	// Metrics は削除件数の記録先。未設定でもよい。
	Metrics SweepRecorder

	// now はテストで時刻を注入するためのフック。
	now func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionSweeper, logger *slog.Logger, idleTimeout, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessions:    sessions,
		logger:      logger,
		IdleTimeout: idleTimeout,
		Interval:    interval,
		now:         time.Now,
	}
}

// Run は失効セッションを1回分削除する。
// last_activeが（現在時刻 - IdleTimeout）より古い非主使用者セッションが対象。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.IdleTimeout)

	deleted, err := j.sessions.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("session cleanup failed: %w", err)
	}

	if j.Metrics != nil {
		j.Metrics.RecordSessionsSwept(deleted)
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", deleted),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start はIntervalごとにRunを実行し続ける。
// ストレージエラーはログに記録して次のtickで再試行し、ループは止めない。
// ctxのキャンセルでのみ終了する。
func (j *CleanupJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	j.logger.Info("session cleanup job started",
		slog.Duration("interval", j.Interval),
		slog.Duration("idle_timeout", j.IdleTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session cleanup job stopped")
			return
		case <-ticker.C:
			// エラーはRun内でログ済み。ループは継続する。
			_ = j.Run(ctx)
		}
	}
}
