// Package model defines shared data types used across the attention pipeline.
//
// Conventions:
//   - Timestamps: UTC time.Time; event time comes from source metadata when
//     present, ingestion time otherwise
//   - Event IDs: sha256 hex of the canonicalized source URL/ID
//   - Influence: optional source-specific reach signal (e.g. author follower
//     count); nil for sources that provide none
package model
