// Copyright 2020 Anapaya Systems
// Copyright 2026 The relayshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sim

import (
	"io"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/relayshim/relayshim/pkg/private/serrors"
)

// LinkTypeShim is the pcap link type of captured frames. Frames carry no link
// layer header, so the first user-reserved DLT is used.
const LinkTypeShim = layers.LinkType(147)

const snapLen = 65535

// Trace captures the frames put on the medium in pcap format.
type Trace struct {
	w      *pcapgo.Writer
	closer io.Closer
}

// NewTrace writes the pcap file header to w and returns a Trace writing to w.
func NewTrace(w io.Writer) (*Trace, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeShim); err != nil {
		return nil, serrors.Wrap("writing pcap header", err)
	}
	return &Trace{w: pw}, nil
}

// CreateTrace creates (or truncates) file and returns a Trace writing to it.
func CreateTrace(file string) (*Trace, error) {
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, serrors.Wrap("creating file", err, "file", file)
	}
	t, err := NewTrace(f)
	if err != nil {
		f.Close()
		return nil, serrors.Wrap("initializing trace", err, "file", file)
	}
	t.closer = f
	return t, nil
}

// Capture records frame as sent at ts on interface ifID.
func (t *Trace) Capture(ts time.Time, ifID uint16, frame []byte) error {
	c := gopacket.CaptureInfo{
		Timestamp:      ts,
		Length:         len(frame),
		CaptureLength:  min(len(frame), snapLen),
		InterfaceIndex: int(ifID),
	}
	if err := t.w.WritePacket(c, frame[:c.CaptureLength]); err != nil {
		return serrors.Wrap("writing packet", err, "ifid", ifID)
	}
	return nil
}

// Close closes the underlying file if the trace owns one.
func (t *Trace) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
