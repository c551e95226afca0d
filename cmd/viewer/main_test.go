package main

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	flag.CommandLine.SetOutput(&out)
	t.Cleanup(func() { flag.CommandLine.SetOutput(nil) })

	flag.String("c", "", "Path to the viewer configuration file")
	usage()

	assert.Contains(t, out.String(), "-c <config.yaml>")
	assert.Contains(t, out.String(), "seek <frame>")
	assert.Contains(t, out.String(), "viewer configuration file")
}
