package imports

import (
	// Tool packages register themselves from init
	_ "github.com/sammcj/mcp-pdftools/internal/tools/pdftools"
	_ "github.com/sammcj/mcp-pdftools/internal/tools/utilities/toolhelp"
)
