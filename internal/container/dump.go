package container

import (
	"bufio"
	"fmt"
	"io"
)

// Dump is the decoded content of a residual dump.
type Dump struct {
	Header
	// Predictor and CrossColor hold the packed mode maps; nil when the
	// matching flag is clear.
	Predictor  []uint32
	CrossColor []uint32
	// Residuals is the width x height residual raster.
	Residuals []uint32
	// Extra holds chunks this package does not know, in file order.
	Extra []Chunk
}

// Chunks builds the chunk list of d in file order, compressing the
// residuals with d.Codec.
func (d *Dump) Chunks() ([]Chunk, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	head, err := d.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	resi, err := Compress(d.Codec, packWords(d.Residuals))
	if err != nil {
		return nil, err
	}

	chunks := []Chunk{{FourCC: FourCCHEAD, Payload: head}}
	if d.Has(FlagPredictor) {
		chunks = append(chunks, Chunk{FourCC: FourCCPRED, Payload: packWords(d.Predictor)})
	}
	if d.Has(FlagCrossColor) {
		chunks = append(chunks, Chunk{FourCC: FourCCXCOL, Payload: packWords(d.CrossColor)})
	}
	chunks = append(chunks, d.Extra...)
	chunks = append(chunks, Chunk{FourCC: FourCCRESI, Payload: resi})
	return chunks, nil
}

// check verifies that the payload slices match the header.
func (d *Dump) check() error {
	if err := d.Header.Validate(); err != nil {
		return err
	}
	if len(d.Predictor) != d.PredictorTiles() {
		return fmt.Errorf("%w: predictor map has %d codes, want %d", ErrInvalidChunk, len(d.Predictor), d.PredictorTiles())
	}
	if len(d.CrossColor) != d.CrossColorTiles() {
		return fmt.Errorf("%w: cross-color map has %d codes, want %d", ErrInvalidChunk, len(d.CrossColor), d.CrossColorTiles())
	}
	if len(d.Residuals) != d.Width*d.Height {
		return fmt.Errorf("%w: %d residuals, want %d", ErrInvalidChunk, len(d.Residuals), d.Width*d.Height)
	}
	return nil
}

// Write serializes d to w.
func Write(w io.Writer, d *Dump) error {
	chunks, err := d.Chunks()
	if err != nil {
		return err
	}
	var total uint64
	for _, c := range chunks {
		total += uint64(ChunkSize(c))
	}
	if total+TagSize > uint64(MaxChunkPayload) {
		return ErrTooLarge
	}

	bw := bufio.NewWriter(w)
	var hdr [RIFFHeaderSize]byte
	PutRIFFHeader(hdr[:], uint32(total))
	if _, err := bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("vp8lpred: writing RIFF header: %w", err)
	}
	for _, c := range chunks {
		if err := WriteChunk(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read reads a whole dump from r.
func Read(r io.Reader) (*Dump, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vp8lpred: reading dump: %w", err)
	}
	return Parse(data)
}

// Parse decodes a dump held in memory. HEAD must come first and RESI must
// be present; unknown chunks are kept in Extra.
func Parse(data []byte) (*Dump, error) {
	hdr, consumed, err := ParseRIFFHeader(data)
	if err != nil {
		return nil, err
	}

	// Limit parsing to the declared RIFF size.
	riffEnd := int(hdr.FileSize) + ChunkHeaderSize
	if riffEnd > len(data) {
		return nil, ErrTruncated
	}
	buf := data[consumed:riffEnd]

	d := &Dump{}
	var haveHead, haveResi bool
	var resi []byte
	for len(buf) > 0 {
		fourcc, size, err := ReadChunkHeader(buf)
		if err != nil {
			return nil, err
		}
		end := uint64(ChunkHeaderSize) + uint64(size)
		if end > uint64(len(buf)) {
			return nil, ErrTruncated
		}
		payload := buf[ChunkHeaderSize:end]
		next := uint64(ChunkHeaderSize) + uint64(PaddedSize(size))
		if next > uint64(len(buf)) {
			next = uint64(len(buf))
		}
		buf = buf[next:]

		if !haveHead && fourcc != FourCCHEAD {
			return nil, fmt.Errorf("%w: %s before HEAD", ErrInvalidChunk, FourCCString(fourcc))
		}
		switch fourcc {
		case FourCCHEAD:
			if haveHead {
				return nil, fmt.Errorf("%w: duplicate HEAD", ErrInvalidChunk)
			}
			if err := d.Header.UnmarshalBinary(payload); err != nil {
				return nil, err
			}
			haveHead = true
		case FourCCPRED:
			if d.Predictor, err = parseModeMap("PRED", payload, d.PredictorTiles(), d.Predictor); err != nil {
				return nil, err
			}
		case FourCCXCOL:
			if d.CrossColor, err = parseModeMap("XCOL", payload, d.CrossColorTiles(), d.CrossColor); err != nil {
				return nil, err
			}
		case FourCCRESI:
			if haveResi {
				return nil, fmt.Errorf("%w: duplicate RESI", ErrInvalidChunk)
			}
			resi = payload
			haveResi = true
		default:
			d.Extra = append(d.Extra, Chunk{FourCC: fourcc, Payload: payload})
		}
	}

	if !haveHead {
		return nil, fmt.Errorf("%w: missing HEAD", ErrInvalidChunk)
	}
	if !haveResi {
		return nil, fmt.Errorf("%w: missing RESI", ErrInvalidChunk)
	}
	if len(d.Predictor) != d.PredictorTiles() {
		return nil, fmt.Errorf("%w: missing PRED", ErrInvalidChunk)
	}
	if len(d.CrossColor) != d.CrossColorTiles() {
		return nil, fmt.Errorf("%w: missing XCOL", ErrInvalidChunk)
	}

	raw, err := Decompress(d.Codec, resi, 4*d.Width*d.Height)
	if err != nil {
		return nil, err
	}
	d.Residuals = unpackWords(raw)
	return d, nil
}

// parseModeMap decodes a PRED or XCOL payload holding want codes. prev is
// the map already parsed, if any.
func parseModeMap(name string, payload []byte, want int, prev []uint32) ([]uint32, error) {
	if prev != nil {
		return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidChunk, name)
	}
	if want == 0 {
		return nil, fmt.Errorf("%w: %s without its header flag", ErrInvalidChunk, name)
	}
	if len(payload) != 4*want {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrInvalidChunk, name, len(payload), 4*want)
	}
	return unpackWords(payload), nil
}
