// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentProperties holds metadata read from a docx core-properties part.
type DocumentProperties struct {
	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Author is the document creator.
	Author string `json:"author" yaml:"author"`

	// Subject is the document subject line.
	Subject string `json:"subject" yaml:"subject"`

	// Created is the creation timestamp, zero when absent.
	Created time.Time `json:"created" yaml:"created"`

	// Modified is the last-modified timestamp, zero when absent.
	Modified time.Time `json:"modified" yaml:"modified"`
}

// ConversionStatus indicates the outcome of a single docx conversion.
type ConversionStatus string

const (
	StatusConverted ConversionStatus = "converted"
	StatusSkipped   ConversionStatus = "skipped"
	StatusFailed    ConversionStatus = "failed"
)

// ConversionStats counts the work done while converting one document.
type ConversionStats struct {
	// MathEquationsExtracted is the number of equations converted through
	// the OMML placeholder pipeline.
	MathEquationsExtracted int `json:"math_equations_extracted" yaml:"math_equations_extracted"`

	// MathDisplayCount and MathInlineCount break the extracted equations
	// down by kind.
	MathDisplayCount int `json:"math_display_count" yaml:"math_display_count"`
	MathInlineCount  int `json:"math_inline_count" yaml:"math_inline_count"`

	// InlineFixed is the number of inline math regions whose delimiters
	// were rewritten.
	InlineFixed int `json:"inline_fixed" yaml:"inline_fixed"`

	// DisplayFixed is the number of display math regions whose delimiters
	// were rewritten.
	DisplayFixed int `json:"display_fixed" yaml:"display_fixed"`

	// TablesProcessed is the number of pipe tables reformatted.
	TablesProcessed int `json:"tables_processed" yaml:"tables_processed"`

	// ImagesProcessed is the number of images copied or optimized.
	ImagesProcessed int `json:"images_processed" yaml:"images_processed"`

	// ImagesFailed is the number of images that could not be processed.
	ImagesFailed int `json:"images_failed" yaml:"images_failed"`

	// TotalImages is the number of image references found in the document.
	TotalImages int `json:"total_images" yaml:"total_images"`
}

// Equations returns the headline equation count: equations lifted by the
// extraction pipeline, or delimiter rewrites when extraction did not run.
func (s ConversionStats) Equations() int {
	if s.MathEquationsExtracted > 0 {
		return s.MathEquationsExtracted
	}
	return s.InlineFixed + s.DisplayFixed
}

// Add accumulates counts from another stats value.
func (s *ConversionStats) Add(other ConversionStats) {
	s.MathEquationsExtracted += other.MathEquationsExtracted
	s.MathDisplayCount += other.MathDisplayCount
	s.MathInlineCount += other.MathInlineCount
	s.InlineFixed += other.InlineFixed
	s.DisplayFixed += other.DisplayFixed
	s.TablesProcessed += other.TablesProcessed
	s.ImagesProcessed += other.ImagesProcessed
	s.ImagesFailed += other.ImagesFailed
	s.TotalImages += other.TotalImages
}
