// Package protocol encodes commands for the rover controller board.
package protocol

// The rover protocol is line oriented ASCII over a UART link.
//
// Commands start with a fixed tag (2 to 4 characters) followed by fixed
// width fields. Numeric fields are always 3 decimal digits, zero padded,
// so the firmware can pick them out at constant offsets. Placeholder
// characters ('+') pad the AI module commands to a fixed length.
//
// Replies use 2 character tags (CT, CV, CU, CL) followed by a decimal
// payload, see package telemetry.
//
// Producer: host driver
// Consumer: rover firmware
