package prober

import (
	"bytes"
	"strings"
)

// binarySignatures are media container markers searched for in a body
// sample. ftyp/moov/mdat identify MP4 boxes, webm/matroska identify EBML
// containers, FLV is the Flash Video magic.
var binarySignatures = [][]byte{
	[]byte("ftyp"),
	[]byte("moov"),
	[]byte("mdat"),
	[]byte("webm"),
	[]byte("matroska"),
	[]byte("FLV"),
}

// textMarkers identify text-based streaming payloads: HLS playlist tags
// and XML manifests.
var textMarkers = []string{
	"#EXT",
	"<?xml",
}

// SniffStreamContent reports whether a response body sample looks like
// media content. It matches binary container signatures anywhere in the
// sample and text markers for playlist/manifest payloads.
//
// The sample should be the first few KB of the body; signatures of every
// common container appear within that window.
func SniffStreamContent(sample []byte) bool {
	for _, marker := range textMarkers {
		if strings.Contains(string(sample), marker) {
			return true
		}
	}
	for _, sig := range binarySignatures {
		if bytes.Contains(sample, sig) {
			return true
		}
	}
	return false
}
