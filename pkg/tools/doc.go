// Package tools holds the tool registry and its Model Context Protocol
// transports.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/toolmesh/pkg/tools/toolbox]: Tool type and ToolBox registry
//   - [github.com/germanamz/toolmesh/pkg/tools/mcpclient]: connects to tool services over stdio or SSE
//   - [github.com/germanamz/toolmesh/pkg/tools/mcpserver]: serves a toolbox over stdio or SSE
//
// Both mcpclient and mcpserver depend on toolbox for the Tool type but are
// independent of each other.
package tools
