package sessionstore

import (
	"fmt"
	"os"

	"github.com/gin-contrib/sessions"
	gsessions "github.com/gorilla/sessions"
)

// FilesystemStore はセッションの値をディレクトリ配下のファイルに保存します。
type FilesystemStore struct {
	*gsessions.FilesystemStore
}

var _ sessions.Store = (*FilesystemStore)(nil)

// NewFilesystemStore は dir を作成したうえで FilesystemStore を返します。
func NewFilesystemStore(dir string, keyPairs ...[]byte) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FilesystemStore{FilesystemStore: gsessions.NewFilesystemStore(dir, keyPairs...)}, nil
}

// Options は Cookie の属性を設定します。
func (s *FilesystemStore) Options(opts sessions.Options) {
	s.FilesystemStore.Options = opts.ToGorillaOptions()
	s.FilesystemStore.MaxAge(opts.MaxAge)
}
