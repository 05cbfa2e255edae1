package state

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// BackupDocuments writes zstd-compressed copies of every JSON state
// document in stateDir to stateDir/backups, timestamped so repeated
// backups never overwrite each other. Returns the backup paths. Used by
// the reset command as a safety net before destroying state.
func BackupDocuments(stateDir string) ([]string, error) {
	entries, err := os.ReadDir(stateDir)
	if err != nil {
		return nil, fmt.Errorf("read state directory: %w", err)
	}

	backupDir := filepath.Join(stateDir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405")

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		src := filepath.Join(stateDir, entry.Name())
		dst := filepath.Join(backupDir, fmt.Sprintf("%s.%s.zst", entry.Name(), stamp))
		if err := compressFile(src, dst); err != nil {
			return backups, fmt.Errorf("backup %s: %w", entry.Name(), err)
		}
		backups = append(backups, dst)
	}
	return backups, nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
