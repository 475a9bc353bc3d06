package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/compress"
	"github.com/yeisme/filedeck/pkg/internal/storage"
	"github.com/yeisme/filedeck/pkg/internal/storage/db"
	nlog "github.com/yeisme/filedeck/pkg/log"
)

// NewFromManager 使用已初始化的存储构建文件服务.
func NewFromManager(mgr *storage.Manager, cfg *configs.AppConfig) (*FileService, error) {
	if mgr == nil || mgr.DB == nil || mgr.S3 == nil {
		return nil, errors.New("storage manager not initialized")
	}

	comp, err := compress.New(cfg.Compress, cfg.CircuitBreaker)
	if err != nil {
		return nil, fmt.Errorf("init compressor: %w", err)
	}

	opts := Options{
		Blobs:      mgr.S3,
		Meta:       mgr.DB.Files(),
		Compressor: comp,
		IsNotFound: func(err error) bool { return errors.Is(err, db.ErrNotFound) },
	}

	if mgr.MQ != nil {
		opts.Events = NewEventPublisher(mgr.MQ.Publisher(), cfg.Events)
	}

	if mgr.KV != nil {
		lc := &cfg.Upload.ListCache

		switch {
		case lc.Active(mgr.KV.Type()):
			opts.Cache = NewKVListCache(mgr.KV, lc.TTL())
		case lc.Enabled:
			nlog.Logger().Info().Str("kv_type", string(mgr.KV.Type())).
				Msg("list cache disabled: kv backend is per-process, set upload.list_cache.allow_local to enable")
		}
	}

	return New(opts), nil
}
