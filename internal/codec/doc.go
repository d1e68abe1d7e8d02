// Package codec implements the byte and text encodings used by the
// La Marzocco cloud protocol.
//
// This package provides:
//
//   - Base64 encoding with the permissive decoder the cloud's historical
//     clients rely on (decoding stops at the first non-alphabet byte)
//   - Version-4 UUID generation for nonces and subscription identifiers
//   - The STOMP text-frame codec used on the realtime websocket channel
//
// # Wire Frame Grammar
//
// STOMP frames on the realtime channel follow this layout:
//
//	COMMAND\n
//	header1:value1\n
//	header2:value2\n
//	\n
//	BODY\x00
//
// Encoding always emits exactly one blank line between headers and body and
// terminates the frame with a single NUL byte. Decoding requires the blank
// line; a payload without it is rejected with ErrNotAFrame.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package codec
