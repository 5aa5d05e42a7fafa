// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusLoader: Reads crawled documents for index builds
//   - DocumentStore: Document and chunk persistence
//   - SessionStore: Conversation history persistence
//   - SearchEngine: Lexical BM25 search over chunks
//   - VectorIndex: Nearest-neighbour search over chunk embeddings
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Classification and answer generation
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
