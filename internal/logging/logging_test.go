package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    string
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "開発モード", mode: "debug", level: "debug", enabled: zapcore.DebugLevel},
		{name: "本番モード", mode: "release", level: "warn", enabled: zapcore.WarnLevel},
		{name: "レベル未指定", mode: "release", level: "", enabled: zapcore.InfoLevel},
		{name: "不正なレベル", mode: "debug", level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := New(tt.mode, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Desugar().Core().Enabled(tt.enabled))
			assert.False(t, logger.Desugar().Core().Enabled(tt.enabled-1))
		})
	}
}
