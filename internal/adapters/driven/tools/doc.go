// Package tools implements the fixed registry of deterministic tools that
// response generators may call: a restricted calculator, date arithmetic and
// simple text analysis.
package tools
