package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxFileSize is the size at which a weekly file rolls to a numbered sibling.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

var numberedFileRe = regexp.MustCompile(`app-\d{4}-W\d{2}_(\d{2})\.log$`)

// WeeklyFile is an io.Writer over logs/app-YYYY-Www.log. A new file is opened
// when the ISO week changes, and app-YYYY-Www_NN.log files are opened when
// the current one reaches maxSize. Files older than the retention are swept daily.
type WeeklyFile struct {
	dir       string
	retention time.Duration
	maxSize   int64

	mu   sync.Mutex
	file *os.File
	week string
	size atomic.Int64

	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// OpenWeeklyFile creates dir if needed and opens the file for the current week.
func OpenWeeklyFile(dir string, retentionWeeks int, maxSize int64) (*WeeklyFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	wf := &WeeklyFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		done:      make(chan struct{}),
	}

	wf.mu.Lock()
	err := wf.rotate(weekKey(wf.now()), false)
	wf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	wf.cancel = cancel
	go wf.sweepLoop(ctx)

	return wf, nil
}

// weekKey returns the ISO week in YYYY-Www form.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p to the current file, rotating first when the week changed
// or p would push the file over its size limit.
func (wf *WeeklyFile) Write(p []byte) (int, error) {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	week := weekKey(wf.now())
	size := wf.size.Load()
	full := wf.maxSize > 0 && size > 0 && size+int64(len(p)) > wf.maxSize
	if week != wf.week || full {
		if err := wf.rotate(week, full && week == wf.week); err != nil {
			return 0, err
		}
	}
	if wf.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := wf.file.Write(p)
	wf.size.Add(int64(n))
	return n, err
}

// rotate closes the current file and opens the right one for week. Caller holds mu.
func (wf *WeeklyFile) rotate(week string, bySize bool) error {
	if wf.file != nil {
		if err := wf.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		wf.file = nil
	}

	name := wf.pickFile(week, bySize)
	path := filepath.Join(wf.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	wf.file = f
	wf.week = week
	wf.size.Store(0)
	if info, err := f.Stat(); err == nil {
		wf.size.Store(info.Size())
	}
	return nil
}

// pickFile returns the base file of week while it has room, otherwise the
// latest numbered file with room, otherwise the next numbered file.
func (wf *WeeklyFile) pickFile(week string, bySize bool) string {
	base := fmt.Sprintf("app-%s.log", week)
	if !bySize {
		info, err := os.Stat(filepath.Join(wf.dir, base))
		if err != nil || wf.maxSize == 0 || info.Size() < wf.maxSize {
			return base
		}
	}

	matches, _ := filepath.Glob(filepath.Join(wf.dir, fmt.Sprintf("app-%s_??.log", week)))
	highest := 0
	var highestSize int64
	for _, m := range matches {
		sub := numberedFileRe.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n <= highest {
			continue
		}
		highest = n
		highestSize = 0
		if info, err := os.Stat(m); err == nil {
			highestSize = info.Size()
		}
	}

	if highest > 0 && highestSize < wf.maxSize && !bySize {
		return fmt.Sprintf("app-%s_%02d.log", week, highest)
	}
	return fmt.Sprintf("app-%s_%02d.log", week, highest+1)
}

func (wf *WeeklyFile) sweepLoop(ctx context.Context) {
	defer close(wf.done)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := wf.sweep(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to sweep old logs: %v\n", err)
			}
		}
	}
}

// sweep deletes app-*.log files last modified before the retention window
// and returns how many were removed.
func (wf *WeeklyFile) sweep() (int, error) {
	entries, err := os.ReadDir(wf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := wf.now().Add(-wf.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(wf.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Close stops the sweeper and closes the current file.
func (wf *WeeklyFile) Close() error {
	if wf.cancel != nil {
		wf.cancel()
		<-wf.done
	}

	wf.mu.Lock()
	defer wf.mu.Unlock()
	if wf.file == nil {
		return nil
	}
	err := wf.file.Close()
	wf.file = nil
	return err
}
