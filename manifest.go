// Manifest: a debug/tooling JSON view of a segment's meta, distinct from
// the binary wire format (checksum.go/segmentmeta.go/fieldmeta.go) that
// actually gets written to disk. Operators and tests want something they
// can eyeball or diff; nothing in the read/write path ever parses this.
package irs

import "github.com/goccy/go-json"

// FieldManifest is one field's introspection view.
type FieldManifest struct {
	Name         string `json:"name"`
	ID           uint32 `json:"id"`
	Freq         bool   `json:"freq"`
	Position     bool   `json:"position"`
	Payload      bool   `json:"payload"`
	Offset       bool   `json:"offset"`
	NormColumnID int32  `json:"norm_column_id,omitempty"`
}

// SegmentManifest is a committed segment's introspection view: everything
// SegmentMeta and FieldMeta carry, flattened into one JSON-friendly shape.
type SegmentManifest struct {
	Name      string          `json:"name"`
	Codec     string          `json:"codec"`
	Version   int32           `json:"version"`
	DocsCount int64           `json:"docs_count"`
	Files     []string        `json:"files"`
	Fields    []FieldManifest `json:"fields"`
	Deleted   int64           `json:"deleted,omitempty"`
}

// IndexManifest is an index's introspection view: the current generation
// plus one SegmentManifest per live segment.
type IndexManifest struct {
	Generation int64             `json:"generation"`
	Segments   []SegmentManifest `json:"segments"`
}

func fieldManifest(f FieldInfo) FieldManifest {
	return FieldManifest{
		Name:         f.Name,
		ID:           f.ID,
		Freq:         f.Features.Has(FeatureFreq),
		Position:     f.Features.Has(FeaturePosition),
		Payload:      f.Features.Has(FeaturePayload),
		Offset:       f.Features.Has(FeatureOffset),
		NormColumnID: f.NormColumnID,
	}
}

// Manifest builds r's introspection view. It never touches disk beyond
// what OpenSegment already read.
func (r *SegmentReader) Manifest() SegmentManifest {
	m := SegmentManifest{
		Name:      r.meta.Name,
		Codec:     r.meta.Codec,
		Version:   r.meta.Version,
		DocsCount: r.meta.DocsCount,
		Files:     append([]string(nil), r.meta.Files...),
	}
	for _, f := range r.Fields {
		m.Fields = append(m.Fields, fieldManifest(f))
	}
	if r.Mask != nil {
		m.Deleted = r.Mask.Count()
	}
	return m
}

// MarshalJSON renders m with goccy/go-json rather than encoding/json, the
// teacher's JSON library of choice for every wire-adjacent structure.
func (m SegmentManifest) MarshalJSON() ([]byte, error) {
	type alias SegmentManifest
	return json.Marshal(alias(m))
}

// BuildIndexManifest opens every segment meta describes and folds its
// SegmentManifest into one IndexManifest, for dumping an index's full
// state in one JSON blob.
func BuildIndexManifest(dir Directory, meta IndexMeta) (IndexManifest, error) {
	im := IndexManifest{Generation: meta.Generation}
	for _, name := range meta.Segments {
		smIn, err := dir.Open(name)
		if err != nil {
			return IndexManifest{}, err
		}
		sm, err := ReadSegmentMeta(smIn)
		smIn.Close()
		if err != nil {
			return IndexManifest{}, err
		}

		open, ok := codecRegistry[sm.Codec]
		if !ok {
			open = OpenSegment
		}
		r, err := open(dir, *sm)
		if err != nil {
			return IndexManifest{}, err
		}
		im.Segments = append(im.Segments, r.Manifest())
		r.Close()
	}
	return im, nil
}

// MarshalJSON renders the whole index manifest via goccy/go-json.
func (im IndexManifest) MarshalJSON() ([]byte, error) {
	type alias IndexManifest
	return json.Marshal(alias(im))
}
