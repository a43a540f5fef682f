// Package workflow advances queue items through the configured pipeline
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (extraction, storyboard, imaging,
// animation, localization, narration, captioning, voicing, merge) while
// capturing progress and failure metadata. It also aggregates queue stats,
// calls stage health checks, and emits queue-level notifications.
//
// The workflow runs two independent lanes: document (extraction,
// storyboarding) and render (per-frame media generation through the final
// merge). Each lane polls for items matching its statuses and processes them
// independently, so a new paper can be extracted while an earlier task
// renders.
package workflow
