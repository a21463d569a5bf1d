// Package streaming serves video files to players.
//
// [ServeFile] supports byte ranges, so players can seek, and conditional
// requests. Each write pushes the connection write deadline forward by
// [Config.WriteTimeout]; a client that stops reading is dropped once the
// deadline passes, while the server-wide WriteTimeout stays disabled for
// long playbacks.
package streaming
