package cli

import (
	"fmt"
	"io"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/presentation/graph"
)

// Graph writes the Mermaid diagram of the contract at path.
func Graph(w io.Writer, path string) error {
	c, err := compiler.NewParser().ParseFile(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(c, nil))
	return err
}
