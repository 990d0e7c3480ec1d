// Package research turns a topic into researched, narrated slides.
//
// A Runner plans up to five objectives for a topic, investigates each one with
// a search, critique and refine loop bounded by a maximum number of iterations,
// synthesizes slide assets for every completed objective, and finally writes a
// report across all objectives.
//
// Generative capabilities are reached through small interfaces (Planner,
// Searcher, Critic, Designer, Scripter, Illustrator, Auditor, ReportWriter).
// Text capabilities are grouped as TextModel and the image capability as
// ImageModel so the two can use separate backends and quotas.
//
// # Investigation
//
// Each objective runs through a compiled graph:
//
//	search -> critique -> refine -> search ...
//	   \          \
//	    recover    finalize -> END
//
// A critique that is sufficient, or the last allowed iteration, finalizes the
// objective. A quota failure waits for the configured backoff and retries while
// it consumes one iteration. Any other failure marks the objective as error.
//
// # Assets
//
// Finalization runs design, then script and image in parallel, then an audit
// of the script against the findings. Failures degrade to missing fields; a
// completed objective is never reverted.
//
// # Observing progress
//
// All objectives live on a Board. Every change replaces the whole list and
// Observers receive a snapshot of it, which is how the CLI and server report
// progress.
package research
