// Package block turns runs of committed events into self-contained block
// payloads and back.
//
// A block stores every field as one column: the codes of that field from
// all events of the block, concatenated in event order. Each column is
// encoded (see package encoding) and then compressed (see package
// compress) on its own. Per-event boundaries are not stored; the decoder
// recovers them from the parent fields, which is why a block can only be
// decoded against the field table it was written with.
//
// Payload layout, in the file byte order:
//
//	u32 event count | u32 field count | column*
//
//	column := u8 encoding | u8 compression | u32 code count |
//	          u32 encoded size | u32 stored size | stored bytes
package block
