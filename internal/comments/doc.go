// Package comments manages comments on videos and their reply threads.
// Replies are append-only; deleting a comment discards its replies.
package comments
