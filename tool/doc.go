// Package tool provides the web search tool used to ground text models that
// have no built-in search.
//
// BraveSearch calls the Brave Search API. Search returns structured results
// for programmatic use; Call formats them as text so the tool also satisfies
// the langchaingo tools.Tool interface:
//
//	brave, err := tool.NewBraveSearch("", tool.WithBraveCount(8))
//	if err != nil {
//		return err
//	}
//	results, err := brave.Search(ctx, "solid state battery roadmap 2025")
//
// An empty API key falls back to the BRAVE_API_KEY environment variable. A
// 429 answer is reported as ErrRateLimited.
package tool
