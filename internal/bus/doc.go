// Package bus fans stored mentions and cycle summaries out to downstream
// consumers over NATS.
package bus
