// Package domain contains the core types for the askpolicy pipeline.
//
// Types here are plain data with no behaviour beyond validation and
// formatting. Services in internal/core/services operate on them;
// adapters in internal/adapters persist and transport them.
//
// Key concepts:
//
//   - Chunk: a bounded, overlapping passage of a knowledge domain's
//     source text, identified by (Domain, Seq).
//   - DomainIndex: the resident vector index for one knowledge domain.
//     Immutable once built; rebuilds produce a new instance.
//   - Turn / thread: one exchange in a conversation thread. Threads are
//     identified by an external messaging identifier and never share
//     turns.
//   - RouteDecision: the classifier's verdict on whether a query wants
//     a structured record lookup or unstructured knowledge retrieval.
package domain
