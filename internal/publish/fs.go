package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FSSwapper publishes on a local or mounted filesystem by renaming the
// staged directory into the live location. Rename is atomic within one
// filesystem, so readers see either the old or the new view directory.
type FSSwapper struct {
	logger *slog.Logger
}

func NewFSSwapper(logger *slog.Logger) *FSSwapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSSwapper{logger: logger}
}

func (s *FSSwapper) Swap(ctx context.Context, staged, live string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("staged content: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
		return fmt.Errorf("prepare live parent: %w", err)
	}

	old := live + ".old-" + uuid.NewString()
	hadOld := false
	if _, err := os.Stat(live); err == nil {
		if err := os.Rename(live, old); err != nil {
			return fmt.Errorf("set aside previous view: %w", err)
		}
		hadOld = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat live: %w", err)
	}

	if err := os.Rename(staged, live); err != nil {
		if hadOld {
			if rbErr := os.Rename(old, live); rbErr != nil {
				s.logger.Error("restore previous view failed", "path", live, "error", rbErr)
			}
		}
		return fmt.Errorf("move staged into place: %w", err)
	}

	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			s.logger.Warn("remove superseded view", "path", old, "error", err)
		}
	}
	return nil
}
