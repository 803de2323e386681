// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/xmlnode"
)

func visitEnvelope(v fieldVisitor, env []bank.EnvelopePoint) {
	v.List("Envelopes", "Envelope", len(env), func(i int, v fieldVisitor) {
		v.Int16("Delay", env[i].Delay)
		v.Int16("Arg", env[i].Arg)
	})
}

// WriteEnvelope writes env to w as a count followed by each step.
func WriteEnvelope(w *resource.Writer, env []bank.EnvelopePoint) {
	visitEnvelope(binaryVisitor{w}, env)
}

// AppendEnvelope appends an Envelopes element describing env to parent and
// returns it.
func AppendEnvelope(parent *xmlnode.Element, env []bank.EnvelopePoint) *xmlnode.Element {
	visitEnvelope(textVisitor{parent}, env)
	return parent.Children[len(parent.Children)-1]
}
