// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciscops/cml-mcp-gateway/internal/cli"
)

// Version information, injected via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cli.SetVersion(version, commit)

	root := &cobra.Command{
		Use:   "cml-mcp-gateway",
		Short: "Bridge MCP clients to a Cisco Modeling Labs server",
		Long: `cml-mcp-gateway exposes Cisco Modeling Labs as an MCP tool server.

Run "cml-mcp-gateway serve" to start the gateway, either over stdio (for a
single, fixed CML server and credential pair) or over HTTP (brokering each
request to the CML server named in its own headers).`,
	}

	root.AddCommand(cli.NewServeCommand())
	root.AddCommand(cli.NewVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
