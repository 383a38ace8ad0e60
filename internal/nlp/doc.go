// Package nlp holds the lightweight text helpers shared by the local
// generator and the hashing embedder: tokenising, stopword filtering and
// sentence splitting.
package nlp
