// Package researchdeck turns a research topic into a narrated slide deck and a
// written report.
//
// A run plans a handful of research objectives for the topic and investigates
// each one through a bounded search, critique and refine loop backed by a
// grounded text model. Completed objectives are turned into slide assets: a
// slide design, a speaker script, an illustration and a quality audit of the
// script against the findings. Finally a report is synthesized across all
// objectives with deduplicated sources.
//
// # Packages
//
//   - research: objectives, the shared board, the investigation loop, asset
//     synthesis, report synthesis and regeneration.
//   - graph: the typed state graph the investigation loop runs on.
//   - llms/gemini, llms/langchain, llms/dalle: text and image backends.
//   - llms/prompt: prompt templates and JSON response decoding.
//   - tool: web search used by the langchain backend.
//   - export: JSON manifest, 16:9 PDF deck, HTML report and zip bundle.
//   - store: project persistence with memory, file, sqlite, redis and
//     postgres drivers.
//   - server: the HTTP generation API.
//   - config, log: configuration loading and leveled logging.
//
// # Quick Start
//
//	export GEMINI_API_KEY=...
//	go run ./cmd/researchdeck run "The future of solid-state batteries"
//
// or serve the API:
//
//	go run ./cmd/researchdeck serve
//	curl -s localhost:9010/generate -d '{"input":{"query":"Solid-state batteries"}}'
//
// Programmatic use:
//
//	text, _ := gemini.NewText(ctx, os.Getenv("GEMINI_API_KEY"))
//	image, _ := gemini.NewImage(ctx, os.Getenv("GEMINI_API_KEY"))
//	runner := research.NewRunner(text, image, research.WithMaxIterations(2))
//	project, err := runner.Run(ctx, "Solid-state batteries")
//	pdf, err := export.New().PDF(project)
package researchdeck
