// Package incident holds Warden's incident domain: the record and decision
// models, the lifecycle status machine, the Store contract shared by the
// deduplicator and the pipeline, and the Tracker that is the sole writer of
// canonical incident status.
package incident
