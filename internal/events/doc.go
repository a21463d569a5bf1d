// Package events publishes video lifecycle events.
//
// When NATS_URL is set, every status transition and deletion is published as
// JSON on the videos.status and videos.deleted subjects so that downstream
// consumers (notifications, search indexing) can react without polling.
// Without NATS the Noop publisher is used.
package events
