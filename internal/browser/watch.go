package browser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// ExpandPages resolves page arguments. Arguments containing glob
// metacharacters are matched against the filesystem (doublestar syntax, so
// "site/**/*.html" works); everything else is passed through.
func ExpandPages(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if strings.Contains(arg, "://") || Restricted(arg) || !strings.ContainsAny(arg, "*?[{") {
			out = append(out, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no pages match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

// ReloadFunc is called after Watch reloads a tab.
type ReloadFunc func(t *Tab)

// Watch reloads file-backed tabs when their file is written, until ctx is
// cancelled. A reload discards the tab's page context and undo history.
func (b *Browser) Watch(ctx context.Context, onReload ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	log := logging.FromContext(logging.WithComponent(ctx, "watch"))

	// Editors often replace files instead of writing them, so watch the
	// directories and filter by name.
	dirs := make(map[string]struct{})
	for _, t := range b.Tabs() {
		if t.Path() == "" {
			continue
		}
		dir := filepath.Dir(t.Path())
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}
	if len(dirs) == 0 {
		log.Debug().Msg("no file-backed tabs to watch")
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			for _, t := range b.Tabs() {
				if t.Path() != filepath.Clean(ev.Name) {
					continue
				}
				if err := t.load(ctx); err != nil {
					log.Warn().Err(err).Str("path", t.Path()).Msg("reload failed")
					continue
				}
				log.Info().Int("tab_id", int(t.ID())).Str("path", t.Path()).Msg("page reloaded")
				if onReload != nil {
					onReload(t)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}
