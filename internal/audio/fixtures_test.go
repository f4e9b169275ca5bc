package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// fakeAudioFrames stands in for encoded audio. It starts with the FLAC frame
// sync code so go-flac accepts it after the metadata blocks.
func fakeAudioFrames() []byte {
	frames := make([]byte, 256)
	frames[0] = 0xFF
	frames[1] = 0xF8
	for i := 2; i < len(frames); i++ {
		frames[i] = byte(i*7 + 3)
	}
	return frames
}

func flacStreamInfo() []byte {
	info := make([]byte, 34)
	binary.BigEndian.PutUint16(info[0:], 4096)
	binary.BigEndian.PutUint16(info[2:], 4096)
	// sample rate (20 bits) | channels-1 (3) | bits per sample-1 (5) | total samples (36)
	packed := uint64(44100)<<44 | uint64(1)<<41 | uint64(15)<<36 | uint64(4096)
	binary.BigEndian.PutUint64(info[10:], packed)
	return info
}

func flacFixture(t *testing.T, frames []byte, comments ...string) []byte {
	t.Helper()
	f := &flac.File{
		Meta:   []*flac.MetaDataBlock{{Type: flac.StreamInfo, Data: flacStreamInfo()}},
		Frames: frames,
	}
	if len(comments) > 0 {
		cmt := flacvorbis.New()
		cmt.Vendor = "reference libFLAC 1.4.3"
		cmt.Comments = append(cmt.Comments, comments...)
		block := cmt.Marshal()
		f.Meta = append(f.Meta, &block)
	}
	return f.Marshal()
}

// flacMetadataLength walks the metadata block headers and returns the offset
// of the first audio frame.
func flacMetadataLength(t *testing.T, data []byte) int {
	t.Helper()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatalf("expected fLaC marker")
	}
	pos := 4
	for {
		if pos+4 > len(data) {
			t.Fatalf("truncated metadata block header at %d", pos)
		}
		header := data[pos]
		length := int(data[pos+1])<<16 | int(data[pos+2])<<8 | int(data[pos+3])
		pos += 4 + length
		if header&0x80 != 0 {
			return pos
		}
	}
}

var oggCRCTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}()

const (
	oggFirstPage = 0x02
	oggLastPage  = 0x04
)

// oggPage frames one complete packet as a single Ogg page.
func oggPage(headerType byte, granule uint64, seq uint32, packet []byte) []byte {
	var lacing []byte
	remaining := len(packet)
	for remaining >= 255 {
		lacing = append(lacing, 255)
		remaining -= 255
	}
	lacing = append(lacing, byte(remaining))

	page := make([]byte, 27, 27+len(lacing)+len(packet))
	copy(page, "OggS")
	page[5] = headerType
	binary.LittleEndian.PutUint64(page[6:], granule)
	binary.LittleEndian.PutUint32(page[14:], 0x5eed)
	binary.LittleEndian.PutUint32(page[18:], seq)
	page[26] = byte(len(lacing))
	page = append(page, lacing...)
	page = append(page, packet...)

	var crc uint32
	for _, b := range page {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	binary.LittleEndian.PutUint32(page[22:], crc)
	return page
}

func vorbisCommentPacket(prefix string, framing bool) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(prefix)
	vendor := "Lavf60.3.100"
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	if framing {
		buf.WriteByte(0x01)
	}
	return buf.Bytes()
}

// opusFixture returns an Ogg Opus stream and its final audio page.
func opusFixture() ([]byte, []byte) {
	head := &bytes.Buffer{}
	head.WriteString("OpusHead")
	head.WriteByte(1)
	head.WriteByte(2)
	_ = binary.Write(head, binary.LittleEndian, uint16(312))
	_ = binary.Write(head, binary.LittleEndian, uint32(48000))
	_ = binary.Write(head, binary.LittleEndian, int16(0))
	head.WriteByte(0)

	audio := oggPage(oggLastPage, 48000+312, 2, append([]byte{0xFC}, fakeAudioFrames()[2:120]...))
	var stream []byte
	stream = append(stream, oggPage(oggFirstPage, 0, 0, head.Bytes())...)
	stream = append(stream, oggPage(0, 0, 1, vorbisCommentPacket("OpusTags", false))...)
	stream = append(stream, audio...)
	return stream, audio
}

// oggVorbisFixture returns an Ogg Vorbis stream and its final audio page.
func oggVorbisFixture() ([]byte, []byte) {
	ident := &bytes.Buffer{}
	ident.WriteString("\x01vorbis")
	_ = binary.Write(ident, binary.LittleEndian, uint32(0))
	ident.WriteByte(2)
	_ = binary.Write(ident, binary.LittleEndian, uint32(44100))
	_ = binary.Write(ident, binary.LittleEndian, int32(0))
	_ = binary.Write(ident, binary.LittleEndian, int32(128000))
	_ = binary.Write(ident, binary.LittleEndian, int32(0))
	ident.WriteByte(0xB8)
	ident.WriteByte(0x01)

	setup := append([]byte("\x05vorbis"), fakeAudioFrames()[2:40]...)
	audio := oggPage(oggLastPage, 44100, 3, fakeAudioFrames()[2:160])

	var stream []byte
	stream = append(stream, oggPage(oggFirstPage, 0, 0, ident.Bytes())...)
	stream = append(stream, oggPage(0, 0, 1, vorbisCommentPacket("\x03vorbis", true))...)
	stream = append(stream, oggPage(0, 0, 2, setup)...)
	stream = append(stream, audio...)
	return stream, audio
}

func mp4Box(name string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	box := make([]byte, 8, size)
	binary.BigEndian.PutUint32(box, uint32(size))
	copy(box[4:], name)
	for _, p := range payload {
		box = append(box, p...)
	}
	return box
}

func mp4FullBox(name string, flags uint32, payload ...[]byte) []byte {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, flags)
	return mp4Box(name, append([][]byte{header}, payload...)...)
}

func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

var mp4Matrix = bytes.Join([][]byte{
	u32(0x00010000), u32(0), u32(0),
	u32(0), u32(0x00010000), u32(0),
	u32(0), u32(0), u32(0x40000000),
}, nil)

// m4aFixture returns a single-sample AAC-in-MP4 file laid out as
// ftyp, moov, mdat, plus the mdat box. The moov carries an ilst with an
// encoder tag, the shape most encoders produce.
func m4aFixture() ([]byte, []byte) {
	sample := fakeAudioFrames()
	ftyp := mp4Box("ftyp", []byte("M4A "), u32(0x200), []byte("M4A mp42isom"))

	moovFor := func(chunkOffset uint32) []byte {
		mvhd := mp4FullBox("mvhd", 0, u32(0), u32(0), u32(44100), u32(1024), u32(0x00010000), u16(0x0100), make([]byte, 10), mp4Matrix, make([]byte, 24), u32(2))
		tkhd := mp4FullBox("tkhd", 7, u32(0), u32(0), u32(1), u32(0), u32(1024), make([]byte, 8), u16(0), u16(0), u16(0x0100), u16(0), mp4Matrix, u32(0), u32(0))
		mdhd := mp4FullBox("mdhd", 0, u32(0), u32(0), u32(44100), u32(1024), u16(0x55c4), u16(0))
		hdlr := mp4FullBox("hdlr", 0, u32(0), []byte("soun"), make([]byte, 12), []byte("SoundHandler\x00"))
		smhd := mp4FullBox("smhd", 0, u16(0), u16(0))
		dinf := mp4Box("dinf", mp4FullBox("dref", 0, u32(1), mp4FullBox("url ", 1)))
		mp4a := mp4Box("mp4a", make([]byte, 6), u16(1), make([]byte, 8), u16(2), u16(16), u16(0), u16(0), u32(44100<<16))
		stbl := mp4Box("stbl",
			mp4FullBox("stsd", 0, u32(1), mp4a),
			mp4FullBox("stts", 0, u32(1), u32(1), u32(1024)),
			mp4FullBox("stsc", 0, u32(1), u32(1), u32(1), u32(1)),
			mp4FullBox("stsz", 0, u32(0), u32(1), u32(uint32(len(sample)))),
			mp4FullBox("stco", 0, u32(1), u32(chunkOffset)),
		)
		trak := mp4Box("trak", tkhd, mp4Box("mdia", mdhd, hdlr, mp4Box("minf", smhd, dinf, stbl)))

		encoder := mp4Box("\xa9too", mp4Box("data", u32(1), u32(0), []byte("Lavf60.3.100")))
		meta := mp4FullBox("meta", 0,
			mp4FullBox("hdlr", 0, u32(0), []byte("mdirappl"), make([]byte, 8), []byte{0}),
			mp4Box("ilst", encoder),
		)
		return mp4Box("moov", mvhd, trak, mp4Box("udta", meta))
	}

	moov := moovFor(0)
	moov = moovFor(uint32(len(ftyp) + len(moov) + 8))
	mdat := mp4Box("mdat", sample)

	var file []byte
	file = append(file, ftyp...)
	file = append(file, moov...)
	file = append(file, mdat...)
	return file, mdat
}
