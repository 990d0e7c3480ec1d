// Package log provides the leveled logger used across researchdeck.
//
// Components take a Logger and fall back to the package-level default when
// none is configured. GologLogger forwards to github.com/kataras/golog and can
// hand out component-tagged children with Named:
//
//	logger := log.New(os.Stderr, log.LevelDebug)
//	runner := research.NewRunner(text, image,
//		research.WithLogger(logger.Named("research")))
//
// ParseLevel maps the configuration strings "debug", "info", "warn", "error"
// and "none".
package log
