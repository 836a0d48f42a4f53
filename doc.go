// Package ace implements the Agentic Context Engineering loop in
// Go: a playbook of curated lessons, a curation engine that folds
// reflections into it through delta operations, relevance retrieval
// for prompt building, and the generator/reflector/curator trio that
// drives online and offline adaptation.
//
// See the pkg subdirectories for the individual components:
//
//   - pkg/playbook:  the bullet store, snapshots and persistence
//   - pkg/curator:   delta operations, dedup and eviction
//   - pkg/retrieval: relevance queries over the playbook
//   - pkg/ace:       the generation/reflection/curation framework
//   - pkg/llm:       LLM client abstraction (Anthropic backend)
//   - pkg/tools:     MCP-backed tool registry for the generator
package ace
