package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/pkg/domain"
)

func TestWriteGraph(t *testing.T) {
	p, err := wayfarer.New()
	require.NoError(t, err)
	g := p.Graph()

	t.Run("mermaid", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeGraph(&buf, g, "mermaid"))
		assert.True(t, strings.HasPrefix(buf.String(), "graph TD\n"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeGraph(&buf, g, "json"))
		var got domain.GraphExport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, g, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeGraph(&buf, g, "yaml"))
		assert.Contains(t, buf.String(), "entry: ask_origin")
		var got domain.GraphExport
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, g.Entry, got.Entry)
		assert.Len(t, got.Nodes, len(g.Nodes))
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeGraph(&bytes.Buffer{}, g, "png"))
	})
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "wayfarer version "+wayfarer.Version+"\n", out.String())
}
