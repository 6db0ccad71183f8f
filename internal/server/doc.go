// Package server implements the MCP (Model Context Protocol) server for the
// label pipeline.
//
// The server speaks JSON-RPC 2.0 over a line-oriented stream:
//   - Input: one JSON-RPC request per line
//   - Output: one JSON-RPC response per line
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - label_scan: Run the full pipeline on one or more label images
//   - label_validate_image: Run the quality gate only
//   - label_extract_text: OCR one region of a normalized image
//   - label_extract_fields: Extract fields from text already read
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the error's code, message and details when it carries an
//     error code, otherwise the Go error string
//
// A scan that finds no text is not an error; its result carries a
// failure_reason instead.
//
// # Usage
//
//	srv := server.New(p, engine, extractor, server.WithLogger(logger))
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
