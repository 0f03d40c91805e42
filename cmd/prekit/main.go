// SPDX-License-Identifier: MPL-2.0

// Command prekit runs declarative hooks against changed files,
// provisioning shared per-language environments on demand.
package main

func main() {
	Execute()
}
