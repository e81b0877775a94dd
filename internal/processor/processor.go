// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package processor contains the Markdown rewrite passes that run after
// pandoc converts a document: Word artifact cleanup, unicode and equation
// repair, figure captions, math delimiter normalization, table layout and
// YAML frontmatter. Passes are composed per document with a Chain.
package processor

import "fmt"

// Processor is a single rewrite pass over Markdown content.
//
// Implementations may keep per-document counters that accumulate across
// Process calls, so a fresh instance is built for every conversion.
type Processor interface {
	// Name identifies the pass in logs and wrapped errors.
	Name() string

	// Process returns the rewritten content.
	Process(content string) (string, error)
}

// Chain applies processors in order, stopping at the first failure.
type Chain []Processor

// Run feeds content through every processor in the chain. On error the
// content returned is the output of the last pass that succeeded.
func (c Chain) Run(content string) (string, error) {
	for _, p := range c {
		out, err := p.Process(content)
		if err != nil {
			return content, fmt.Errorf("%s: %w", p.Name(), err)
		}
		content = out
	}
	return content, nil
}
