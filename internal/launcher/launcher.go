// Package launcher decides whether a cached binary can be launched as-is or
// the script must be rebuilt first, then hands execution off to the binary.
//
// A cache hit validates that the recorded artifact still exists, but not its
// integrity; a binary truncated by an interrupted earlier build would still
// be launched. Verifying integrity would mean hashing the artifact on every
// hit, which defeats the fast path.
package launcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/tekacs/scriptr/internal/cache"
	"github.com/tekacs/scriptr/internal/fingerprint"
	"github.com/tekacs/scriptr/internal/history"
)

// Builder rebuilds a script and returns the produced binary's path.
type Builder interface {
	Build(source string, release, verbose bool) (string, error)
}

// ExecFunc replaces the current process image. It only returns on failure.
type ExecFunc func(argv0 string, argv, envv []string) error

// Options are the per-invocation flags, already parsed by the CLI layer.
type Options struct {
	Debug     bool
	Verbose   bool
	Force     bool
	Clean     bool
	CleanOnly bool
	HashOnly  bool
}

// Engine composes the fingerprinter, cache store and builder into the
// per-invocation launch policy.
type Engine struct {
	store   *cache.Store
	builder Builder

	// historyDir, when set, enables best-effort run recording. The log is
	// opened only on the rebuild path so a cache hit execs without ever
	// touching the history database.
	historyDir string

	// seam for tests
	exec ExecFunc
}

// New creates an engine. historyDir may be empty to disable run recording;
// recording is always best-effort and never fails a run.
func New(store *cache.Store, builder Builder, historyDir string) *Engine {
	return &Engine{
		store:      store,
		builder:    builder,
		historyDir: historyDir,
		exec:       defaultExec,
	}
}

// Run resolves the script, consults the cache, rebuilds if needed and hands
// off to the artifact. On success it never returns: the process image is
// replaced. A nil return means a completed clean-only invocation.
func (e *Engine) Run(script string, args []string, opts Options) error {
	resolved, err := resolve(script)
	if err != nil {
		return err
	}

	key := fingerprint.PathKey(resolved)
	log.Debugf("script: %s", resolved)
	log.Debugf("cache entry: %s", e.store.EntryPath(key))

	if opts.Clean || opts.CleanOnly {
		log.Debugf("removing cache entry")
		if err := e.store.Remove(key); err != nil {
			return err
		}

		if opts.CleanOnly {
			log.Debugf("clean complete, exiting")
			return nil
		}
	}

	if !opts.Force {
		artifact, hit, err := e.decide(resolved, key, opts.HashOnly)
		if err != nil {
			return err
		}

		if hit {
			return e.launch(artifact, args)
		}
	} else {
		log.Debugf("force rebuild requested")
	}

	artifact, err := e.rebuild(resolved, key, opts)
	if err != nil {
		return err
	}

	return e.launch(artifact, args)
}

// decide reports whether the cache entry for key is still valid. The mtime
// comparison is a cost optimization only: hashing reads the whole file while
// mtime is a single stat. But editors can rewrite content without changing
// the mtime at whole-second granularity, so the hash stays authoritative
// whenever the mtime does not unambiguously prove "unchanged".
func (e *Engine) decide(resolved, key string, hashOnly bool) (artifact string, hit bool, err error) {
	entry, err := e.store.Lookup(key)
	if err != nil {
		return "", false, err
	}

	if entry == nil {
		log.Debugf("no cache entry found")
		return "", false, nil
	}

	if !hashOnly {
		curMtime, err := fingerprint.Mtime(resolved)
		if err != nil {
			return "", false, err
		}

		log.Debugf("cached mtime: %d, current mtime: %d", entry.Fingerprint.Mtime, curMtime)

		if entry.Fingerprint.Mtime == curMtime && artifactExists(entry.Artifact) {
			log.Debugf("mtime unchanged, using cached binary: %s", entry.Artifact)
			return entry.Artifact, true, nil
		}
	}

	curHash, err := fingerprint.HashFile(resolved)
	if err != nil {
		return "", false, err
	}

	log.Debugf("cached hash: %.16s, current hash: %.16s", entry.Fingerprint.Hash, curHash)

	if entry.Fingerprint.Hash == curHash && artifactExists(entry.Artifact) {
		log.Debugf("hash unchanged, using cached binary: %s", entry.Artifact)
		return entry.Artifact, true, nil
	}

	return "", false, nil
}

// rebuild invokes cargo, refreshes the full fingerprint (both fields,
// regardless of which one was checked) and persists the new entry.
func (e *Engine) rebuild(resolved, key string, opts Options) (string, error) {
	log.Debugf("building script")
	start := time.Now()

	artifact, err := e.builder.Build(resolved, !opts.Debug, opts.Verbose)
	if err != nil {
		e.record(resolved, "", time.Since(start), false)
		return "", err
	}

	fp, err := fingerprint.File(resolved)
	if err != nil {
		return "", err
	}

	log.Debugf("writing cache entry")
	err = e.store.Store(key, &cache.Entry{Fingerprint: fp, Artifact: artifact})
	if err != nil {
		return "", err
	}

	e.record(resolved, artifact, time.Since(start), true)

	return artifact, nil
}

// launch replaces the current process image with the artifact. It only
// returns on failure; a vanished artifact at this point is fatal, not a
// trigger for another rebuild.
func (e *Engine) launch(artifact string, args []string) error {
	log.Debugf("executing: %s", artifact)

	argv := append([]string{artifact}, args...)
	err := e.exec(artifact, argv, os.Environ())

	return &LaunchError{Artifact: artifact, Err: err}
}

// record appends a run to the history log, best-effort.
func (e *Engine) record(script, artifact string, buildTime time.Duration, success bool) {
	if e.historyDir == "" {
		return
	}

	hist, err := history.Open(e.historyDir)
	if err != nil {
		log.Debugf("failed to open history: %v", err)
		return
	}
	defer hist.Close()

	err = hist.Append(history.Record{
		Time:        time.Now(),
		Script:      script,
		Artifact:    artifact,
		BuildMillis: buildTime.Milliseconds(),
		Success:     success,
	})
	if err != nil {
		log.Debugf("failed to record history: %v", err)
	}
}

// resolve canonicalizes the script path, following symlinks.
func resolve(script string) (string, error) {
	abs, err := filepath.Abs(script)
	if err != nil {
		return "", &PathError{Path: script, Err: err}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &PathError{Path: script, Err: err}
	}

	return resolved, nil
}

func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
