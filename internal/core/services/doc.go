// Package services implements the driving ports: retrieval over the chunk
// store, question answering, document ingestion, analytics and settings.
// It also owns the resource budget that loads and evicts heavyweight models.
package services
