// Package engine is the composition root. It loads and validates the YAML
// configuration, then assembles the model completer, the availability probe,
// the tool-service dialers and the two tool servers from it.
package engine
