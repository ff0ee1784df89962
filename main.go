// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/bootkit/bootkit/cmd/bootkit"

func main() {
	cmd.Execute()
}
