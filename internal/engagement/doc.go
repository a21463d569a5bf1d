// Package engagement maintains like/dislike membership for videos and
// comments. A user is in at most one of the two sets of a subject; repeating
// an action toggles back to neutral. The transition, both membership sets and
// both counters change in one database transaction.
package engagement
