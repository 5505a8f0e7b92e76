// Package source decodes the advanced XML publication of the SDN list into
// its raw, still-normalized sections.
package source

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformed means the document is not well-formed XML.
	ErrMalformed = errors.New("malformed source document")
	// ErrMissingSection means a section required for ingestion is absent.
	ErrMissingSection = errors.New("missing required section")
)

type referenceValueSets struct {
	Sets []ReferenceSet `xml:",any"`
}

type locationsSection struct {
	Items []Location `xml:"Location"`
}

type documentsSection struct {
	Items []IDRegDocument `xml:"IDRegDocument"`
}

type sanctionsSection struct {
	Items []SanctionsEntry `xml:"SanctionsEntry"`
}

type partiesSection struct {
	Items []DistinctParty `xml:"DistinctParty"`
}

// Decode reads a whole publication. Element namespaces are ignored.
// ReferenceValueSets and DistinctParties are required; the shared-object
// sections may be absent.
func Decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	var sawRefs, sawParties bool
	depth := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 {
				continue
			}
			// Each branch consumes the element through its end tag.
			depth--
			switch t.Name.Local {
			case "DateOfIssue":
				var d dateOfIssue
				err = dec.DecodeElement(&d, &t)
				doc.DateOfIssue = d.String()
			case "ReferenceValueSets":
				var s referenceValueSets
				err = dec.DecodeElement(&s, &t)
				doc.ReferenceSets = s.Sets
				sawRefs = true
			case "Locations":
				var s locationsSection
				err = dec.DecodeElement(&s, &t)
				doc.Locations = s.Items
			case "IDRegDocuments":
				var s documentsSection
				err = dec.DecodeElement(&s, &t)
				doc.IDRegDocuments = s.Items
			case "SanctionsEntries":
				var s sanctionsSection
				err = dec.DecodeElement(&s, &t)
				doc.SanctionsEntries = s.Items
			case "DistinctParties":
				var s partiesSection
				err = dec.DecodeElement(&s, &t)
				doc.DistinctParties = s.Items
				sawParties = true
			default:
				err = dec.Skip()
			}
			if err != nil {
				return nil, fmt.Errorf("%w: section %s: %v", ErrMalformed, t.Name.Local, err)
			}
		case xml.EndElement:
			depth--
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: unexpected end of document", ErrMalformed)
	}
	if !sawRefs {
		return nil, fmt.Errorf("%w: ReferenceValueSets", ErrMissingSection)
	}
	if !sawParties {
		return nil, fmt.Errorf("%w: DistinctParties", ErrMissingSection)
	}
	return doc, nil
}
