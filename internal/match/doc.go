// Package match implements the Ticker Matcher.
//
// Matching is deterministic, case-insensitive substring containment of either
// the entity name or the ticker symbol inside the text. Overlapping watch-list
// entries all report; there is no longest-match rule. An empty result is a
// normal outcome, not an error.
package match
