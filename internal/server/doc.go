// Package server exposes the color-transfer engine as an MCP tool server.
//
// Requests arrive as newline-delimited JSON-RPC 2.0 messages on stdin and
// each response is written as a single line on stdout. Logs never go to
// stdout. The server answers initialize, tools/list, tools/call and ping.
//
// # Tools
//
//   - image_info: dimensions, format and size on disk
//   - color_statistics: per-channel Lab mean and standard deviation
//   - color_transfer: recolor an image from a reference and save the result
//   - color_transfer_preview: inline base64 PNG preview, GPU when available
//   - color_cache_clear: forget cached reference statistics
//
// Reference statistics are reused across calls until color_transfer sees a
// new input/reference pair.
//
// # Errors
//
// A failing tool yields an error response with code -32000 and the Go error
// text in data. Unknown methods get -32601 and malformed arguments -32602.
//
// # Usage
//
//	srv := server.New(transfer.New())
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
