// Field meta: the global feature registry plus one record per field
// (name, id, feature set, norm column id) (spec.md §4.7).
package irs

import "fmt"

const (
	fieldMetaFormat  = "irs_field_meta"
	fieldMetaVersion = 1
)

// featureRegistryNames is the self-describing feature-id table written
// once at the top of every field-meta file, so a future reader (or a
// different process version) can confirm which bit means what without
// hardcoding the mapping.
var featureRegistryNames = []string{"freq", "position", "payload", "offset"}

// FieldInfo is one field's record in field meta.
type FieldInfo struct {
	Name         string
	ID           uint32
	Features     FeatureSet
	NormColumnID int32 // -1 if the field has no norm column
}

// WriteFieldMeta writes the field-meta file: header, feature registry,
// then one record per field, then footer.
func WriteFieldMeta(out IndexOutput, fields []FieldInfo) error {
	cw := newCRC32Writer(out)
	if err := WriteHeader(cw, fieldMetaFormat, fieldMetaVersion); err != nil {
		return err
	}

	if err := WriteVInt(cw, uint32(len(featureRegistryNames))); err != nil {
		return err
	}
	for _, name := range featureRegistryNames {
		if err := WriteVInt(cw, uint32(len(name))); err != nil {
			return err
		}
		if _, err := cw.Write([]byte(name)); err != nil {
			return err
		}
	}

	if err := WriteVInt(cw, uint32(len(fields))); err != nil {
		return err
	}
	for _, f := range fields {
		if err := WriteVInt(cw, uint32(len(f.Name))); err != nil {
			return err
		}
		if _, err := cw.Write([]byte(f.Name)); err != nil {
			return err
		}
		if err := WriteVInt(cw, f.ID); err != nil {
			return err
		}
		if err := cw.WriteByte(byte(f.Features)); err != nil {
			return err
		}
		if err := WriteZVInt(cw, f.NormColumnID); err != nil {
			return err
		}
	}
	return cw.Close()
}

// ReadFieldMeta reads a field-meta file written by WriteFieldMeta,
// validating the feature registry matches this package's own feature
// bit assignment.
func ReadFieldMeta(in IndexInput) ([]FieldInfo, error) {
	if err := VerifyFooter(in); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(in, fieldMetaFormat); err != nil {
		return nil, err
	}

	regCount, err := ReadVInt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read feature registry count: %v", ErrIndexCorrupt, err)
	}
	if int(regCount) != len(featureRegistryNames) {
		return nil, fmt.Errorf("%w: feature registry has %d entries, expected %d", ErrIndexCorrupt, regCount, len(featureRegistryNames))
	}
	for i := uint32(0); i < regCount; i++ {
		nameLen, err := ReadVInt(in)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, nameLen)
		if err := readFull(in, buf); err != nil {
			return nil, err
		}
		if string(buf) != featureRegistryNames[i] {
			return nil, fmt.Errorf("%w: feature registry entry %d is %q, expected %q", ErrIndexCorrupt, i, buf, featureRegistryNames[i])
		}
	}

	fieldCount, err := ReadVInt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read field count: %v", ErrIndexCorrupt, err)
	}
	fields := make([]FieldInfo, fieldCount)
	for i := range fields {
		nameLen, err := ReadVInt(in)
		if err != nil {
			return nil, err
		}
		nameBuf := make([]byte, nameLen)
		if err := readFull(in, nameBuf); err != nil {
			return nil, err
		}
		id, err := ReadVInt(in)
		if err != nil {
			return nil, err
		}
		featByte, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		normID, err := ReadZVInt(in)
		if err != nil {
			return nil, err
		}
		fields[i] = FieldInfo{
			Name:         string(nameBuf),
			ID:           id,
			Features:     FeatureSet(featByte),
			NormColumnID: normID,
		}
	}
	return fields, nil
}
