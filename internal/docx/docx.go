// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx reads OOXML (.docx) packages: document metadata from the
// core-properties part, and the math extraction pipeline that lifts OMML
// equations out of word/document.xml so pandoc cannot garble them.
package docx

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/pdiddy/docx2md/pkg/types"
)

const corePropsPart = "docProps/core.xml"

// coreProperties mirrors the Dublin Core fields of docProps/core.xml.
type coreProperties struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

// ReadProperties extracts document metadata from a .docx file. A
// package without a core-properties part yields zero-value properties
// and no error.
func ReadProperties(path string) (types.DocumentProperties, error) {
	data, err := readArchiveFile(path, corePropsPart)
	if err != nil {
		return types.DocumentProperties{}, err
	}
	if data == nil {
		return types.DocumentProperties{}, nil
	}

	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return types.DocumentProperties{}, fmt.Errorf("parse %s: %w", corePropsPart, err)
	}

	return types.DocumentProperties{
		Title:    core.Title,
		Author:   core.Creator,
		Subject:  core.Subject,
		Created:  parseW3CDTF(core.Created),
		Modified: parseW3CDTF(core.Modified),
	}, nil
}

// parseW3CDTF parses the timestamp format Word writes into core
// properties. Unparseable values become the zero time.
func parseW3CDTF(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
