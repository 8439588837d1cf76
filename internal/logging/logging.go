// Package logging は zap のロガーを生成します。
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New は gin の実行モードとログレベルに応じたロガーを返します。
// release モードでは JSON、それ以外では開発者向けのコンソール形式で出力します。
func New(ginMode, level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if ginMode == "release" {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}
