package pixelbuffer

import "golang.org/x/text/encoding/charmap"

// SetMakeModelFromLatin1 decodes raw camera-identity bytes as read off
// an EXIF/MakerNote tag — conventionally ISO-8859-1, not UTF-8 — and
// stores them as proper UTF-8 in Metadata.Make/Model. Firmware on
// older bodies null-pads these fields; trailing NUL bytes are trimmed
// before decoding.
func (b *Buffer) SetMakeModelFromLatin1(rawMake, rawModel []byte) error {
	make_, err := decodeLatin1(rawMake)
	if err != nil {
		return err
	}
	model, err := decodeLatin1(rawModel)
	if err != nil {
		return err
	}
	b.Metadata.Make = make_
	b.Metadata.Model = model
	return nil
}

func decodeLatin1(raw []byte) (string, error) {
	i := len(raw)
	for i > 0 && raw[i-1] == 0 {
		i--
	}
	return charmap.ISO8859_1.NewDecoder().String(string(raw[:i]))
}
