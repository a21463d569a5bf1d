// Package middleware provides HTTP middleware for the video platform API.
//
// It includes:
//   - Caller identity from trusted gateway headers
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labeled by route template
//   - gzip compression of JSON responses
package middleware
